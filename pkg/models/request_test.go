package models

import "testing"

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{"valid", Request{ID: "r-1", Prompt: "explain the scheduler"}, false},
		{"valid complex", Request{ID: "r-2", Prompt: "ship the feature", Complex: true}, false},
		{"missing id", Request{Prompt: "explain the scheduler"}, true},
		{"missing prompt", Request{ID: "r-3"}, true},
		{"blank prompt", Request{ID: "r-4", Prompt: "   \n"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
