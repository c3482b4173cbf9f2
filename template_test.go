package bhvtree

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateUnmarshalBareIndexKind(t *testing.T) {
	var tpl Template
	require.NoError(t, json.Unmarshal([]byte(`{"WaitForever": 3}`), &tpl))
	assert.Equal(t, "WaitForever", tpl.Kind)
	assert.Equal(t, int32(3), tpl.Idx)
}

func TestTemplateUnmarshalSequence(t *testing.T) {
	data := []byte(`{
		"Sequence": [0, [
			{"AlwaysSuccess": 1},
			{"Wait": [2, 500]}
		]]
	}`)
	var tpl Template
	require.NoError(t, json.Unmarshal(data, &tpl))
	assert.Equal(t, "Sequence", tpl.Kind)
	require.Len(t, tpl.Children, 2)
	assert.Equal(t, "AlwaysSuccess", tpl.Children[0].Kind)
	assert.Equal(t, "Wait", tpl.Children[1].Kind)
	assert.Equal(t, int64(500), tpl.Children[1].Ms)
}

func TestTemplateUnmarshalAction(t *testing.T) {
	data := []byte(`{
		"Action": [2, {
			"name": "BtActNodeExample",
			"meta_map": {"meta_data1": "10000"},
			"bb_ref_map": {"bb_data1": "blackboard_data1"},
			"dyn_ref_map": {"dyn_data1": "11111", "dyn_data2": "<blackboard_data2>"}
		}]
	}`)
	var tpl Template
	require.NoError(t, json.Unmarshal(data, &tpl))
	require.NotNil(t, tpl.Action)
	assert.Equal(t, "BtActNodeExample", tpl.Action.Name)
	assert.Equal(t, "10000", tpl.Action.MetaMap["meta_data1"])
	assert.Equal(t, "blackboard_data1", tpl.Action.BbRefMap["bb_data1"])
	assert.Equal(t, "<blackboard_data2>", tpl.Action.DynRefMap["dyn_data2"])
}

func TestTemplateUnmarshalPriorityBranchPipeLists(t *testing.T) {
	data := []byte(`{
		"PriorityBranch": [0, true, "1|2|3", {"AlwaysSuccess": 1}, [
			{"AlwaysSuccess": 2}, {"AlwaysSuccess": 3}, {"AlwaysSuccess": 4}
		]]
	}`)
	var tpl Template
	require.NoError(t, json.Unmarshal(data, &tpl))
	assert.Equal(t, []int{1, 2, 3}, tpl.Priorities)
	assert.True(t, tpl.CanAbort)
}

func TestTemplateUnmarshalRejectsMultiKeyObject(t *testing.T) {
	var tpl Template
	err := json.Unmarshal([]byte(`{"Sequence": [0, []], "Select": [1, []]}`), &tpl)
	assert.Error(t, err)
}

func TestTemplateUnmarshalUnknownKind(t *testing.T) {
	var tpl Template
	err := json.Unmarshal([]byte(`{"NotAThing": [0]}`), &tpl)
	require.NoError(t, err)
	assert.Equal(t, "NotAThing", tpl.Kind)
}

func TestTreeTemplateTopLevel(t *testing.T) {
	data := []byte(`{
		"tree_blackboard": [{"bb_name": "x", "bb_type": "i32", "bb_value": "1"}],
		"tree_structure": {"AlwaysSuccess": 0}
	}`)
	var tt TreeTemplate
	require.NoError(t, json.Unmarshal(data, &tt))
	require.Len(t, tt.Blackboard, 1)
	assert.Equal(t, "x", tt.Blackboard[0].Name)
	require.NotNil(t, tt.Structure)
	assert.Equal(t, "AlwaysSuccess", tt.Structure.Kind)
}
