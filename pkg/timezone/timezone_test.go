package timezone

import (
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		zone    string
		wantErr bool
	}{
		{"utc", "UTC", false},
		{"common zone", "America/New_York", false},
		{"zone with underscore", "Asia/Ho_Chi_Minh", false},
		{"empty", "", true},
		{"local forbidden", "Local", true},
		{"garbage", "Not/A_Zone", true},
		{"abbreviation", "EST5EDT", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.zone)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%q) error = %v, wantErr %v", tt.zone, err, tt.wantErr)
			}
		})
	}
}

func TestCatalogZonesAllLoad(t *testing.T) {
	for _, name := range Names {
		if _, err := time.LoadLocation(name); err != nil {
			t.Errorf("catalog zone %q does not load: %v", name, err)
		}
	}
}

func TestCatalogIncludesDefault(t *testing.T) {
	for _, name := range Names {
		if name == Default {
			return
		}
	}
	t.Errorf("catalog is missing the default zone %q", Default)
}
