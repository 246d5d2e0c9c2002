package mdform_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/reoring/mdform"
	"github.com/reoring/mdform/node"
)

const jobSchema = `{
	"title": "Parameters",
	"type": "object",
	"properties": {"params": {"$ref": "#/definitions/JobParams"}},
	"definitions": {
		"Direction": {
			"title": "Direction",
			"description": "An enumeration.",
			"enum": ["Up Regulated", "Down Regulated"],
			"type": "string"
		},
		"Threshold": {
			"title": "Threshold",
			"type": "object",
			"properties": {
				"method": {"title": "Method", "enum": ["percentage"], "type": "string"},
				"percentage": {"title": "Percentage", "type": "number", "minimum": 0, "maximum": 100}
			},
			"required": ["method", "percentage"]
		},
		"Count": {
			"title": "Count",
			"type": "object",
			"properties": {
				"method": {"title": "Method", "enum": ["count"], "type": "string"},
				"count": {"title": "Count", "type": "integer", "minimum": 1}
			},
			"required": ["method"]
		},
		"JobParams": {
			"title": "JobParams",
			"type": "object",
			"properties": {
				"dataset_name": {"title": "Dataset Name", "anyOf": [{"type": "string"}, {"type": "null"}]},
				"direction": {"$ref": "#/definitions/Direction"},
				"samples": {"title": "Samples", "type": "array", "items": {"type": "string"}, "minItems": 2},
				"filter": {
					"title": "Filter",
					"discriminator": {"propertyName": "method", "mapping": {"percentage": "#/definitions/Threshold", "count": "#/definitions/Count"}},
					"oneOf": [{"$ref": "#/definitions/Threshold"}, {"$ref": "#/definitions/Count"}]
				}
			},
			"required": ["direction", "filter"]
		}
	}
}`

const jobForm = `{` +
	`"dataset_name":{"type":"string","title":"Dataset Name"},` +
	`"direction":{"title":"Direction","description":"An enumeration.","type":"string","required":true,` +
	`"parameters":{"options":[{"name":"Up Regulated","value":"up_regulated"},{"name":"Down Regulated","value":"down_regulated"}]}},` +
	`"samples":{"type":"string","title":"Samples","parameters":{"min":2}},` +
	`"filter":{"title":"Filter","required":true},` +
	`"percentage":{"title":"Percentage","type":"number","required":true,"parameters":{"min":0,"max":100}},` +
	`"count":{"title":"Count","type":"integer","parameters":{"min":1}},` +
	`"title":"Parameters","type":"object"}`

func TestTranslate_MinimalForm(t *testing.T) {
	form, err := mdform.TranslateJSON([]byte(`{"title": "Parameters", "required": ["x"], "properties": {"x": {"type": "string"}}}`))
	require.NoError(t, err)
	assert.Equal(t, `{"x":{"type":"string","required":true},"title":"Parameters"}`, encode(t, form))
}

func TestTranslate_JobSchema(t *testing.T) {
	in := mustJSON(t, jobSchema)
	before := encode(t, in)

	form, err := mdform.Translate(in)
	require.NoError(t, err)
	assert.Equal(t, jobForm, encode(t, form))
	assert.Equal(t, before, encode(t, in))

	for _, k := range []string{"$ref", "definitions", "oneOf", "anyOf", "discriminator", "properties", "enum", "minimum", "maxItems"} {
		assert.False(t, hasKey(form, k), "form still carries %q", k)
	}
}

func TestTranslate_YAMLMatchesJSON(t *testing.T) {
	yamlSchema := `
title: Parameters
type: object
required: [count]
properties:
  count:
    type: integer
    minimum: 1
    maximum: 10
  mode:
    enum: [Fast Mode, slow]
`
	form, err := mdform.TranslateYAML([]byte(yamlSchema))
	require.NoError(t, err)
	assert.Equal(t,
		`{"count":{"type":"integer","required":true,"parameters":{"min":1,"max":10}},`+
			`"mode":{"parameters":{"options":[{"name":"Fast Mode","value":"fast_mode"},{"name":"Slow","value":"slow"}]}},`+
			`"title":"Parameters","type":"object"}`,
		encode(t, form))
}

func TestTranslate_TypeMapping(t *testing.T) {
	cfg := mdform.DefaultConfig()
	cfg.TypeMapping = mdform.DatasetTypeMapping()

	form, err := cfg.TranslateBytes([]byte(`{"properties":{"params":{"properties":{"experiment_id":{"title":"Experiment"}}}}}`), mdform.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, `{"experiment_id":{"title":"Experiment","type":"UUID"}}`, encode(t, form))
}

func TestConfig_Pipeline(t *testing.T) {
	names := func(passes []mdform.Pass) []string {
		out := make([]string, len(passes))
		for i, p := range passes {
			out[i] = p.Name
		}
		return out
	}

	assert.Equal(t, []string{
		"required-flags",
		"enum-options",
		"collapse-anyof",
		"expand-oneof",
		"resolve-refs",
		"rename-keys",
		"move-to-parameters",
		"flatten-properties",
		"flatten-items",
		"promote-params",
	}, names(mdform.DefaultConfig().Pipeline()))

	cfg := mdform.DefaultConfig()
	cfg.PromoteKey = ""
	cfg.TypeMapping = map[string]string{"id": "UUID"}
	got := names(cfg.Pipeline())
	assert.Equal(t, "flatten-items", got[len(got)-2])
	assert.Equal(t, "types-by-key", got[len(got)-1])
}

func TestTranslate_RootMustBeObject(t *testing.T) {
	for _, src := range []string{`[]`, `"s"`, `1`, `null`} {
		_, err := mdform.TranslateJSON([]byte(src))
		assert.ErrorIs(t, err, mdform.ErrRootNotObject, src)
	}
}

func TestTranslate_OptionalDiscriminatedUnion(t *testing.T) {
	form, err := mdform.TranslateJSON([]byte(`{
		"properties": {
			"filter": {
				"title": "Filter",
				"anyOf": [
					{"discriminator": {"propertyName": "method"}, "oneOf": [{"$ref": "#/definitions/A"}]},
					{"type": "null"}
				]
			}
		},
		"definitions": {"A": {"properties": {"method": {"enum": ["a"]}, "x": {"type": "integer"}}}}
	}`))
	require.NoError(t, err)
	assert.Equal(t, `{"filter":{"title":"Filter"},"x":{"type":"integer"}}`, encode(t, form))
	for _, k := range []string{"oneOf", "discriminator", "anyOf"} {
		assert.False(t, hasKey(form, k), "form still carries %q", k)
	}
}

func TestTranslate_ReferenceErrorsCarryPassName(t *testing.T) {
	_, err := mdform.TranslateJSON([]byte(`{"definitions":{},"properties":{"g":{"$ref":"#/definitions/Ghost"}}}`))
	require.Error(t, err)

	var missing *mdform.MissingDefinitionError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "Ghost", missing.Name)
	assert.Contains(t, err.Error(), "resolve-refs: ")
}

func TestTranslate_MalformedInput(t *testing.T) {
	_, err := mdform.TranslateJSON([]byte(`{"a":`))
	require.Error(t, err)

	_, err = mdform.TranslateJSON([]byte(`{"a":1,"a":2}`))
	var dup *node.DuplicateKeyError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "a", dup.Key)
}

func TestApply_StopsAtFirstFailure(t *testing.T) {
	boom := errors.New("boom")
	var ran []string
	pass := func(name string, err error) mdform.Pass {
		return mdform.Pass{Name: name, Transform: func(n node.Node) (node.Node, error) {
			ran = append(ran, name)
			return n, err
		}}
	}

	_, err := mdform.Apply(node.NewObject(), pass("one", nil), pass("two", boom), pass("three", nil))
	require.ErrorIs(t, err, boom)
	assert.EqualError(t, err, "two: boom")
	assert.Equal(t, []string{"one", "two"}, ran)
}

func TestTranslate_LogsEachPass(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	cfg := mdform.DefaultConfig()
	cfg.Logger = zap.New(core)

	_, err := cfg.Translate(mustJSON(t, `{"properties":{"a":{}}}`))
	require.NoError(t, err)

	applied := logs.FilterMessage("pass applied").All()
	require.Len(t, applied, len(cfg.Pipeline()))
	assert.Equal(t, "required-flags", applied[0].ContextMap()["pass"])
}

func TestTranslate_ConcurrentUseOfSharedInput(t *testing.T) {
	in := mustJSON(t, jobSchema)

	var wg sync.WaitGroup
	results := make([]string, 16)
	errs := make([]error, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			form, err := mdform.Translate(in)
			if err != nil {
				errs[i] = err
				return
			}
			b, err := node.Marshal(form)
			results[i], errs[i] = string(b), err
		}()
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, jobForm, results[i])
	}
}
