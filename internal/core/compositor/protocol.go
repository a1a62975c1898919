package compositor

import (
	"encoding/json"
	"fmt"
)

// Scaler selects how the compositor fits an image into its box.
type Scaler string

const (
	ScalerCrop        Scaler = "crop"
	ScalerDistort     Scaler = "distort"
	ScalerFitContain  Scaler = "fit_contain"
	ScalerContain     Scaler = "contain"
	ScalerForcedCover Scaler = "forced_cover"
	ScalerCover       Scaler = "cover"
)

// Scalers lists every supported scaler.
var Scalers = []Scaler{ScalerCrop, ScalerDistort, ScalerFitContain, ScalerContain, ScalerForcedCover, ScalerCover}

// ParseScaler validates a scaler name. The empty string means the
// compositor default.
func ParseScaler(s string) (Scaler, error) {
	if s == "" {
		return "", nil
	}
	for _, sc := range Scalers {
		if string(sc) == s {
			return sc, nil
		}
	}
	return "", fmt.Errorf("unknown scaler %q", s)
}

// Placement describes one image drawn at a cell position. Zero values of
// the optional fields are left out of the wire command.
type Placement struct {
	ID     string
	Path   string
	X      int
	Y      int
	Width  int
	Height int
	Scaler Scaler

	Draw             *bool
	Sync             *bool
	ScalingPositionX *float64
	ScalingPositionY *float64
}

type addCommand struct {
	Action           string   `json:"action"`
	Identifier       string   `json:"identifier"`
	Path             string   `json:"path"`
	X                int      `json:"x"`
	Y                int      `json:"y"`
	Width            int      `json:"width,omitempty"`
	Height           int      `json:"height,omitempty"`
	Scaler           Scaler   `json:"scaler,omitempty"`
	Draw             *bool    `json:"draw,omitempty"`
	Sync             *bool    `json:"synchronously_draw,omitempty"`
	ScalingPositionX *float64 `json:"scaling_position_x,omitempty"`
	ScalingPositionY *float64 `json:"scaling_position_y,omitempty"`
}

type removeCommand struct {
	Action     string `json:"action"`
	Identifier string `json:"identifier"`
}

// EncodeAdd returns the newline terminated add command for p.
func EncodeAdd(p Placement) ([]byte, error) {
	return encodeLine(addCommand{
		Action:           "add",
		Identifier:       p.ID,
		Path:             p.Path,
		X:                p.X,
		Y:                p.Y,
		Width:            p.Width,
		Height:           p.Height,
		Scaler:           p.Scaler,
		Draw:             p.Draw,
		Sync:             p.Sync,
		ScalingPositionX: p.ScalingPositionX,
		ScalingPositionY: p.ScalingPositionY,
	})
}

// EncodeRemove returns the newline terminated remove command for id.
func EncodeRemove(id string) ([]byte, error) {
	return encodeLine(removeCommand{Action: "remove", Identifier: id})
}

func encodeLine(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode command: %w", err)
	}
	return append(b, '\n'), nil
}
