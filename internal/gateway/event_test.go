package gateway

import "testing"

func TestParseEvent(t *testing.T) {
	raw := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1","status":"succeeded"}}}`)
	ev, err := ParseEvent(raw)
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}
	if ev.ID != "evt_1" || ev.Type != "payment_intent.succeeded" {
		t.Errorf("event = %+v", ev)
	}
	if got := ev.IntentID(); got != "pi_1" {
		t.Errorf("IntentID = %q, want pi_1", got)
	}
}

func TestParseEventRejectsIncompleteEnvelopes(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not_json", `{{`},
		{"missing_id", `{"type":"payment_intent.succeeded"}`},
		{"missing_type", `{"id":"evt_1"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseEvent([]byte(tc.raw)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestIntentIDFromChargeEvent(t *testing.T) {
	raw := []byte(`{"id":"evt_r","type":"charge.refunded","data":{"object":{"payment_intent":"pi_9"}}}`)
	ev, err := ParseEvent(raw)
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}
	if got := ev.IntentID(); got != "pi_9" {
		t.Errorf("IntentID = %q, want pi_9", got)
	}
}

func TestIntentIDUnrelatedEvent(t *testing.T) {
	raw := []byte(`{"id":"evt_c","type":"customer.created","data":{"object":{"id":"cus_1"}}}`)
	ev, err := ParseEvent(raw)
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}
	if got := ev.IntentID(); got != "" {
		t.Errorf("IntentID = %q, want empty", got)
	}
}
