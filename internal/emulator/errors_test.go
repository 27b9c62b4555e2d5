package emulator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantProgram bool
		contains    string
	}{
		{
			name:        "corrupt content",
			err:         errors.New("invalid rom: header checksum mismatch"),
			wantProgram: true,
			contains:    "corrupted or invalid",
		},
		{
			name:        "corrupt keyword",
			err:         errors.New("cartridge data is corrupt"),
			wantProgram: true,
			contains:    "corrupted or invalid",
		},
		{
			name:        "permission denied",
			err:         errors.New("open /roms/x.gb: permission denied"),
			wantProgram: true,
			contains:    "Check file permissions",
		},
		{
			name:        "access denied",
			err:         errors.New("access is denied"),
			wantProgram: true,
			contains:    "Check file permissions",
		},
		{
			name:        "unclassified passes through",
			err:         errors.New("mapper 0xFD not implemented"),
			wantProgram: false,
			contains:    "mapper 0xFD not implemented",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify("/roms/game.gb", tt.err)

			var progErr *ProgramError
			if tt.wantProgram {
				assert.ErrorAs(t, got, &progErr)
			} else {
				assert.NotErrorAs(t, got, &progErr)
			}
			assert.Contains(t, got.Error(), tt.contains)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestParseButton(t *testing.T) {
	tests := []struct {
		in      string
		want    Button
		wantErr bool
	}{
		{in: "a", want: ButtonA},
		{in: "A", want: ButtonA},
		{in: "start", want: ButtonStart},
		{in: " select ", want: ButtonSelect},
		{in: "Down", want: ButtonDown},
		{in: "x", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseButton(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "Valid buttons are")
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
