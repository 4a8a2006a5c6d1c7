package gles

import "testing"

func TestI420Size(t *testing.T) {
	tests := []struct {
		name    string
		w, h    int
		want    int
		wantErr bool
	}{
		{name: "hd", w: 1280, h: 720, want: 1382400},
		{name: "small even", w: 2, h: 2, want: 6},
		{name: "odd width", w: 3, h: 2, wantErr: true},
		{name: "odd height", w: 2, h: 3, wantErr: true},
		{name: "one by one", w: 1, h: 1, wantErr: true},
		{name: "zero", w: 0, h: 0, wantErr: true},
		{name: "negative", w: -2, h: 2, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := i420Size(tt.w, tt.h)
			if tt.wantErr {
				if err == nil {
					t.Errorf("i420Size(%d, %d) accepted an invalid size", tt.w, tt.h)
				}
				return
			}
			if err != nil {
				t.Fatalf("i420Size(%d, %d): %v", tt.w, tt.h, err)
			}
			if got != tt.want {
				t.Errorf("i420Size(%d, %d) = %d, want %d", tt.w, tt.h, got, tt.want)
			}
		})
	}
}
