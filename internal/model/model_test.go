package model

import (
	"encoding/json"
	"regexp"
	"strings"
	"testing"
)

// crockfordBase32 matches valid ULID strings (26 chars, Crockford Base32 alphabet).
var crockfordBase32 = regexp.MustCompile(`^[0123456789ABCDEFGHJKMNPQRSTVWXYZ]{26}$`)

func TestNewIDFormat(t *testing.T) {
	id := NewID()
	if !crockfordBase32.MatchString(id) {
		t.Errorf("NewID() = %q, does not match Crockford Base32 ULID format", id)
	}
}

func TestNewIDUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewID()
		if seen[id] {
			t.Fatalf("NewID() produced duplicate: %s", id)
		}
		seen[id] = true
	}
}

func TestValidTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusFailed, true},
		{StatusPending, StatusCompleted, false},
		{StatusProcessing, StatusCompleted, true},
		{StatusProcessing, StatusFailed, true},
		{StatusProcessing, StatusPending, false},
		{StatusCompleted, StatusProcessing, false},
		{StatusFailed, StatusPending, false},
	}
	for _, c := range cases {
		if got := ValidTransition(c.from, c.to); got != c.want {
			t.Errorf("ValidTransition(%q, %q) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestVec3JSONRoundTrip(t *testing.T) {
	v := Vec3{1.5, -2, 30}
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != "[1.5,-2,30]" {
		t.Errorf("Marshal = %s, want [1.5,-2,30]", data)
	}
	var got Vec3
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got != v {
		t.Errorf("round trip = %v, want %v", got, v)
	}
}

func validConfig() JobConfig {
	return JobConfig{
		SceneName:       "warehouse",
		SimulationSteps: 5,
		MoveTogether:    true,
		Drones: []EntityConfig{
			{Location: Vec3{0, 0, 10}},
		},
	}
}

func TestUnmarshalAppliesDefaults(t *testing.T) {
	var cfg JobConfig
	data := []byte(`{"job_id":"p1","scene_name":"warehouse","drones":[{"location":[0,0,10]}]}`)
	if err := json.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if cfg.SimulationSteps != DefaultSimulationSteps {
		t.Errorf("SimulationSteps = %d, want %d", cfg.SimulationSteps, DefaultSimulationSteps)
	}
	if !cfg.MoveTogether {
		t.Error("MoveTogether = false, want true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestUnmarshalKeepsExplicitValues(t *testing.T) {
	var cfg JobConfig
	data := []byte(`{"scene_name":"warehouse","simulation_steps":2,"move_together":false,"drones":[{"location":[0,0,10]}]}`)
	if err := json.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if cfg.SimulationSteps != 2 {
		t.Errorf("SimulationSteps = %d, want 2", cfg.SimulationSteps)
	}
	if cfg.MoveTogether {
		t.Error("MoveTogether = true, want false")
	}
}

func TestValidateOK(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := JobConfig{
		SimulationSteps: 0,
		Drones: []EntityConfig{
			{Location: Vec3{0, 0, 0}, HasMotion: true, Motion: &Motion{Type: MotionLine}},
			{Location: Vec3{1, 1, 1}, HasMotion: true, Motion: &Motion{Type: "spiral"}},
		},
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}
	msg := err.Error()
	for _, frag := range []string{"scene_name", "simulation_steps", "end_position", "spiral"} {
		if !strings.Contains(msg, frag) {
			t.Errorf("Validate() error %q missing %q", msg, frag)
		}
	}
}

func TestValidateCircleRadius(t *testing.T) {
	cfg := validConfig()
	cfg.Drones[0].HasMotion = true
	cfg.Drones[0].Motion = &Motion{Type: MotionCircle, Radius: 0}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() = nil, want error for zero radius")
	}

	cfg.Drones[0].Motion.Radius = 3.5
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil for positive radius", err)
	}
}
