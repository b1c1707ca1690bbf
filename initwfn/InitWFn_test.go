package initwfn

import (
	"encoding/json"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gorgonia.org/tensor"
)

func TestNew(t *testing.T) {
	for _, typ := range []Type{GlorotU, GlorotN, HeU, HeN, Zeroes} {
		init, err := New(typ, 1)
		if err != nil {
			t.Fatalf("%v: %v", typ, err)
		}
		if init.Type != typ || !typ.Valid() {
			t.Errorf("%v: got type %v", typ, init.Type)
		}

		weights, ok := init.InitWFn()(tensor.Float64, 3, 4).([]float64)
		if !ok || len(weights) != 12 {
			t.Fatalf("%v: expected 12 float64 weights, got %v", typ,
				init.InitWFn()(tensor.Float64, 3, 4))
		}
		if typ == Zeroes && !floats.Equal(weights, make([]float64, 12)) {
			t.Errorf("zeroes: got weights %v", weights)
		}
	}

	if _, err := New("orthogonal", 1); err == nil {
		t.Error("expected an error for an unknown initializer")
	}
	if _, err := New(GlorotU, 0); err == nil {
		t.Error("expected an error for a zero gain")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	init, err := New(HeN, 2)
	if err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(init)
	if err != nil {
		t.Fatal(err)
	}

	var restored InitWFn
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatal(err)
	}
	if restored.Type != HeN {
		t.Errorf("restored type = %v, want %v", restored.Type, HeN)
	}
	if c, ok := restored.Config.(HeNConfig); !ok || c.Gain != 2 {
		t.Errorf("restored config = %+v, want gain 2", restored.Config)
	}
	if restored.InitWFn() == nil {
		t.Error("restored initializer was not created")
	}

	if want := `{"Gain":2}`; string(mustMarshal(t, restored.Config)) != want {
		t.Errorf("config marshalled as %s, want %s",
			mustMarshal(t, restored.Config), want)
	}

	bad := []byte(`{"Type": "glorot_uniform", "Config": {"Gain": -1}}`)
	if err := json.Unmarshal(bad, &restored); err == nil {
		t.Error("expected an error for a negative gain")
	}
}

func mustMarshal(t *testing.T, v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return data
}
