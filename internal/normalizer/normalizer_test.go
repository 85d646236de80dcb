package normalizer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", []string{}},
		{"blank", "   ", []string{}},
		{"comma separated", "Asthma, Diabetes", []string{"Asthma", "Diabetes"}},
		{"drops empty items", "Asthma,, ,Diabetes,", []string{"Asthma", "Diabetes"}},
		{"json array string", `["Asthma", "Diabetes"]`, []string{"Asthma", "Diabetes"}},
		{"json array with blanks", `[" Asthma ", "", null]`, []string{"Asthma"}},
		{"json array of numbers", `[1, 2.5]`, []string{"1", "2.5"}},
		{"malformed array falls back to commas", `['Asthma', 'Diabetes']`, []string{"Asthma", "Diabetes"}},
		{"quoted items", `"Fish Oil", 'Vitamin D'`, []string{"Fish Oil", "Vitamin D"}},
		{"single value", "Peanuts", []string{"Peanuts"}},
		{"only brackets", "[]", []string{}},
		{"double encoded array", `"[\"Asthma\", \"Diabetes\"]"`, []string{"Asthma", "Diabetes"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.in))
		})
	}
}

func TestFromResolvesEveryRepresentation(t *testing.T) {
	want := []string{"Asthma", "Diabetes"}

	assert.Equal(t, want, ToList(`["Asthma","Diabetes"]`))
	assert.Equal(t, want, ToList("Asthma, Diabetes"))
	assert.Equal(t, want, ToList([]string{" Asthma", "Diabetes ", ""}))
	assert.Equal(t, want, ToList([]interface{}{"Asthma", "Diabetes"}))
	assert.Equal(t, want, ToList([]byte(`["Asthma","Diabetes"]`)))
	assert.Equal(t, []string{}, ToList(nil))
}

func TestRoundTripThroughStoredForms(t *testing.T) {
	original := []string{" Vitamin D", "Fish Oil ", "", "Probiotics"}
	want := []string{"Vitamin D", "Fish Oil", "Probiotics"}

	stored := []interface{}{
		Encode(original),
		Join(original),
		original,
	}

	for _, form := range stored {
		assert.Equal(t, want, ToList(form))
		assert.Equal(t, want, Parse(Join(ToList(form))))
		assert.Equal(t, want, Parse(Encode(ToList(form))))
	}
}

func TestValueTextAndList(t *testing.T) {
	v := Text("Peanuts , Penicillin")
	assert.Equal(t, KindText, v.Kind())
	assert.Equal(t, []string{"Peanuts", "Penicillin"}, v.List())
	assert.Equal(t, "Peanuts, Penicillin", v.Text())

	l := List("Improve Energy", " ")
	assert.Equal(t, KindList, l.Kind())
	assert.Equal(t, []string{"Improve Energy"}, l.List())
	assert.False(t, l.IsEmpty())
	assert.True(t, Value{}.IsEmpty())
}

func TestValueJSON(t *testing.T) {
	var payload struct {
		Conditions Value `json:"conditions"`
		Goals      Value `json:"goals"`
		Missing    Value `json:"missing"`
	}
	err := json.Unmarshal([]byte(`{"conditions":"Asthma, Diabetes","goals":["Boost Immunity"],"missing":null}`), &payload)
	require.NoError(t, err)

	assert.Equal(t, KindText, payload.Conditions.Kind())
	assert.Equal(t, []string{"Asthma", "Diabetes"}, payload.Conditions.List())
	assert.Equal(t, []string{"Boost Immunity"}, payload.Goals.List())
	assert.True(t, payload.Missing.IsEmpty())

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"conditions":["Asthma","Diabetes"],"goals":["Boost Immunity"],"missing":[]}`, string(out))

	var bad Value
	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &bad))
}
