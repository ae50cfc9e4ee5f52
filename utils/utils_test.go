package utils

import (
	"slices"
	"testing"
)

func TestFilterSlice(t *testing.T) {
	reference := []string{"AirT_C_Avg", "RH", "WS_ms_Avg"}

	if got := FilterSlice(nil, reference, ""); !slices.Equal(got, reference) {
		t.Errorf("Got %v, wanted the full reference for nil input", got)
	}

	got := FilterSlice([]string{"RH", "Bogus_Avg"}, reference, "")
	if !slices.Equal(got, []string{"RH"}) {
		t.Errorf("Got %v, wanted unknown entries dropped", got)
	}
}
