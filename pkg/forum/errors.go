package forum

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoSession is returned by domain calls issued before Bootstrap has
// completed. No network request is made in that case.
var ErrNoSession = errors.New("forum: no session, call Bootstrap first")

// HTTPError is a non-2xx response from the backend. Message carries the
// server-provided `{"error": ...}` body when the server included one.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("forum: server returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("forum: server returned %d", e.Status)
}

// IsNotFound reports whether err is an HTTPError with status 404, the case a
// caller hits when resolving a reply target that was deleted server-side.
func IsNotFound(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.Status == http.StatusNotFound
}
