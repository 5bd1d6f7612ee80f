package asebahttp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.viam.com/test"

	"github.com/Celinna/mobile-robotics/pkg/transport"
)

type fakeBridge struct {
	lock sync.Mutex
	vars map[string][]int
}

func (f *fakeBridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.lock.Lock()
	defer f.lock.Unlock()

	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/"), "/")
	if len(parts) != 3 || parts[0] != "nodes" || parts[1] != DefaultNode {
		http.NotFound(w, r)
		return
	}
	name := parts[2]
	switch r.Method {
	case http.MethodPost:
		var values []int
		if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.vars[name] = values
		w.WriteHeader(http.StatusNoContent)
	case http.MethodGet:
		values, ok := f.vars[name]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(values)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeBridge) get(name string) []int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.vars[name]
}

func TestClientAgainstBridge(t *testing.T) {
	bridge := &fakeBridge{vars: map[string][]int{
		transport.ProxHorizontal: {0, 10, 4000, 0, 0, 0, 0},
	}}
	srv := httptest.NewServer(bridge)
	defer srv.Close()

	c, err := New(srv.URL, "", time.Second)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, c.SetVar(transport.LeftTarget, 65436), test.ShouldBeNil)
	test.That(t, bridge.get(transport.LeftTarget), test.ShouldResemble, []int{65436})

	before := time.Now()
	r, err := c.GetVar(transport.ProxHorizontal)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r.Values, test.ShouldResemble, []int{0, 10, 4000, 0, 0, 0, 0})
	test.That(t, r.CaptureTime.Before(before), test.ShouldBeFalse)

	r, err = c.GetVar(transport.LeftTarget)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r.First(), test.ShouldEqual, 65436)

	_, err = c.GetVar("unknown.var")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "404")
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New("localhost:3000", "", time.Second)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = New("ftp://localhost", "", time.Second)
	test.That(t, err, test.ShouldNotBeNil)
}
