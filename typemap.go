package mdform

import "github.com/reoring/mdform/node"

// ConvertTypesByKey sets "type" on every object stored under a key listed in
// mapping, e.g. {"experiment_id": {...}} -> {"experiment_id": {..., "type": "UUID"}}.
// Array elements carry no key and are never retyped.
func ConvertTypesByKey(mapping map[string]string) Pass {
	table := cloneTable(mapping)
	return Pass{
		Name: "types-by-key",
		Transform: func(n node.Node) (node.Node, error) {
			return retype(table, n, ""), nil
		},
	}
}

func retype(table map[string]string, n node.Node, key string) node.Node {
	switch v := n.(type) {
	case *node.Object:
		out := node.NewObject()
		for k, c := range v.All() {
			out.Set(k, retype(table, c, k))
		}
		if t, ok := table[key]; ok && key != "" {
			out.Set("type", node.String(t))
		}
		return out
	case node.Array:
		out := make(node.Array, len(v))
		for i, c := range v {
			out[i] = retype(table, c, "")
		}
		return out
	default:
		return n
	}
}

// DatasetTypeMapping returns the key-to-type table used for dataset job
// parameter forms.
func DatasetTypeMapping() map[string]string {
	return map[string]string{
		"id":                          "UUID",
		"user_id":                     "UUID",
		"experiment_id":               "UUID",
		"experiment_ids":              "Array",
		"name":                        "String",
		"job_run_params":              "__REPLACE_ME__",
		"type":                        "String",
		"tables":                      "Array",
		"dataset_name":                "String",
		"sample_name":                 "String",
		"experiment_design":           "Experiment",
		"condition_column":            "ConditionComparison",
		"condition_comparisons":       "ConditionComparisonConditions",
		"condition_comparison_pairs":  "Array",
		"control_variables":           "Array",
		"column":                      "String",
		"limma_trend":                 "Boolean",
		"robust_empirical_bayes":      "Boolean",
		"fit_separate_models":         "Boolean",
		"filter_values_criteria":      "__REPLACE_ME__",
		"method":                      "String",
		"filter_threshold_percentage": "Number",
		"filter_threshold_count":      "Number",
		"filter_valid_values_logic":   "String",
		"output_dataset_type":         "String",
	}
}
