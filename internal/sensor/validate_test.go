package sensor

import "testing"

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		value      float64
		sensorType string
		valid      bool
		reason     string
	}{
		{"rainfall in range", 12.5, "rainfall", true, ""},
		{"rainfall at minimum", 0, "rainfall", true, ""},
		{"rainfall at maximum", 500, "rainfall", true, ""},
		{"rainfall below minimum", -1, "rainfall", false, "Value -1 below minimum 0"},
		{"rainfall above maximum", 501, "rainfall", false, "Value 501 above maximum 500"},
		{"temperature below minimum", -10.5, "temperature", false, "Value -10.5 below minimum -10"},
		{"temperature negative but valid", -5, "temperature", true, ""},
		{"humidity above maximum", 100.1, "humidity", false, "Value 100.1 above maximum 100"},
		{"reservoir level in range", 65, "reservoirLevel", true, ""},
		{"unknown sensor type", 42, "salinity", false, "Invalid sensor type"},
		{"empty sensor type", 42, "", false, "Invalid sensor type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.value, tt.sensorType)
			if result.Valid != tt.valid {
				t.Errorf("Validate(%v, %q).Valid = %v, want %v", tt.value, tt.sensorType, result.Valid, tt.valid)
			}
			if result.Reason != tt.reason {
				t.Errorf("Validate(%v, %q).Reason = %q, want %q", tt.value, tt.sensorType, result.Reason, tt.reason)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	if got := len(Types()); got != 4 {
		t.Fatalf("Types() returned %d sensor types, want 4", got)
	}

	cfg, ok := Get("rainfall")
	if !ok {
		t.Fatal("rainfall missing from registry")
	}
	if cfg.CriticalLow != nil {
		t.Errorf("rainfall CriticalLow = %v, want nil", *cfg.CriticalLow)
	}

	cfg, ok = Get("temperature")
	if !ok {
		t.Fatal("temperature missing from registry")
	}
	// Zero is a real threshold for temperature, not an absent one
	if cfg.CriticalLow == nil || *cfg.CriticalLow != 0 {
		t.Errorf("temperature CriticalLow = %v, want 0", cfg.CriticalLow)
	}

	if _, ok := Get("salinity"); ok {
		t.Error("unknown sensor type should not resolve")
	}
}
