package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/baechuer/real-time-ressys/services/booking-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/transport/http/response"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/transport/http/validate"
)

type Clock interface{ Now() time.Time }

// pathUUID writes an invalid_data response and returns false when the
// path param is not a uuid.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id, ok := validate.CanonicalUUID(chi.URLParam(r, name))
	if !ok {
		response.Err(w, r, domain.ErrInvalidDataMeta("invalid path param", map[string]string{
			name: "must be uuid",
		}))
		return "", false
	}
	return id, true
}

// Paging is clamped by the services; here we only reject garbage.
func pageParams(q url.Values) (page, pageSize int, err error) {
	if page, err = intParam(q, "page"); err != nil {
		return 0, 0, err
	}
	if pageSize, err = intParam(q, "page_size"); err != nil {
		return 0, 0, err
	}
	return page, pageSize, nil
}

func intParam(q url.Values, name string) (int, error) {
	v := q.Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, domain.ErrInvalidDataMeta("invalid query param", map[string]string{name: "must be an integer"})
	}
	return n, nil
}

func timeParam(q url.Values, name string) (*time.Time, error) {
	v := q.Get(name)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, domain.ErrInvalidDataMeta("invalid query param", map[string]string{name: "must be RFC3339 timestamp"})
	}
	t = t.UTC()
	return &t, nil
}
