package board

import (
	"encoding/json"
	"time"
)

// TaskView is the projection of a card shown to the model: due dates in the
// user's local model-facing format and empty fields omitted.
type TaskView struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"desc,omitempty"`
	Due         string   `json:"due,omitempty"`
	URL         string   `json:"url,omitempty"`
	Labels      []string `json:"labels,omitempty"`
}

// Views projects cards for the model.
func Views(cards []Card, loc *time.Location) []TaskView {
	views := make([]TaskView, 0, len(cards))
	for _, c := range cards {
		v := TaskView{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
			URL:         c.URL,
			Labels:      c.Labels,
		}
		if c.Due != nil {
			v.Due = FormatModelTime(*c.Due, loc)
		}
		views = append(views, v)
	}
	return views
}

// ViewsJSON renders cards as the JSON array embedded in prompts.
func ViewsJSON(cards []Card, loc *time.Location) (string, error) {
	data, err := json.Marshal(Views(cards, loc))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
