package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
)

const maxPresenceIDs = 100

// PresenceHandler answers which of the requested players are online,
// letting the web app decorate friend lists and invites.
type PresenceHandler struct {
	presence Presence
}

// NewPresenceHandler creates a new presence handler.
func NewPresenceHandler(p Presence) *PresenceHandler {
	return &PresenceHandler{presence: p}
}

type presenceResponse struct {
	Reachable []int64 `json:"reachable"`
}

// HandleGetPresence handles GET /presence?ids=1,2,3 requests.
func (h *PresenceHandler) HandleGetPresence(w http.ResponseWriter, r *http.Request) {
	ids, err := parseIDs(r.URL.Query().Get("ids"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_ids", err)
		return
	}

	reachable := h.presence.ReachableSubset(ids)
	if reachable == nil {
		reachable = []int64{}
	}
	writeJSON(w, http.StatusOK, presenceResponse{Reachable: reachable})
}

func parseIDs(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errors.New("missing ids")
	}

	parts := strings.Split(raw, ",")
	if len(parts) > maxPresenceIDs {
		return nil, errors.New("too many ids")
	}

	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id <= 0 {
			return nil, errors.New("ids must be positive integers")
		}
		ids = append(ids, id)
	}
	return ids, nil
}
