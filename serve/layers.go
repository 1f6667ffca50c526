package serve

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"chromakey/video/layer"
)

// LayerState is the JSON form of one layer's toggle state.
type LayerState struct {
	Name    layer.ID `json:"name"`
	Enabled bool     `json:"enabled"`
}

func states(s *layer.Set) []LayerState {
	var out []LayerState
	for _, l := range s.States() {
		out = append(out, LayerState{Name: l.ID, Enabled: l.Enabled})
	}
	return out
}

// LayerServer is the toggle control. GET lists the layers in order; POST
// with a "name" sets the layer to "enabled", or flips it when "enabled" is
// omitted.
type LayerServer struct {
	Layers *layer.Set
}

func (s *LayerServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		id, err := layer.ParseID(r.Form.Get("name"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if v := r.Form.Get("enabled"); v != "" {
			enabled, perr := strconv.ParseBool(v)
			if perr != nil {
				http.Error(w, perr.Error(), http.StatusBadRequest)
				return
			}
			err = s.Layers.SetEnabled(id, enabled)
		} else {
			_, err = s.Layers.Toggle(id)
		}
		if errors.Is(err, layer.ErrUnknownLayer) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	default:
		http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
		return
	}

	js, err := json.Marshal(states(s.Layers))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(js)
}
