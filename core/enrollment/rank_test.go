package enrollment

import "testing"

func TestCicloRank(t *testing.T) {
	tests := []struct {
		nombre string
		want   int
	}{
		{"Ciclo I", 1},
		{"Ciclo II", 2},
		{"Ciclo III", 3},
		{"Ciclo IV", 4},
		{"Ciclo V", 5},
		{"Ciclo VI", 6},
		{"Ciclo VIII", 8},
		{"Ciclo X", 10},
		{"ciclo iv", 4},   // case-insensitive
		{"IX - Taller", 9},
		{"Electivo", 0},
		{"Nivelación", 0},
		{"Civil", 0}, // "IV" inside a word does not count
		{"", 0},
	}
	for _, tt := range tests {
		t.Run(tt.nombre, func(t *testing.T) {
			if got := CicloRank(tt.nombre); got != tt.want {
				t.Errorf("CicloRank(%q) = %d, want %d", tt.nombre, got, tt.want)
			}
		})
	}
}
