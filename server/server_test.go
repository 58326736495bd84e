package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"voicechef/agent/driver"
)

type stubTurns struct {
	out  driver.TurnOutput
	err  error
	last driver.TurnInput
}

func (s *stubTurns) HandleTurn(_ context.Context, in driver.TurnInput) (driver.TurnOutput, error) {
	s.last = in
	return s.out, s.err
}

type stubSettings struct {
	greeting string
	err      error
}

func (s *stubSettings) Get(context.Context, string) (string, error) {
	return s.greeting, s.err
}

func post(t *testing.T, handler http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestVoiceSpeaksTheConfiguredGreeting(t *testing.T) {
	t.Parallel()

	srv := New(&stubTurns{}, &stubSettings{greeting: "Welcome to Spice Route!"}, Config{})
	rec := post(t, srv.Router(), "/voice", url.Values{"CallSid": {"CA1"}})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/xml" {
		t.Errorf("content type = %q", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{"Welcome to Spice Route!", `action="/process_speech/"`, `timeout="15"`, `input="speech"`} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}

func TestVoiceFailsTheCallWhenGreetingMissing(t *testing.T) {
	t.Parallel()

	srv := New(&stubTurns{}, &stubSettings{err: errors.New("no such key")}, Config{})
	rec := post(t, srv.Router(), "/voice", nil)

	body := rec.Body.String()
	if !strings.Contains(body, failureLine) || !strings.Contains(body, "<Hangup") {
		t.Errorf("missing greeting should fail the call:\n%s", body)
	}
	if strings.Contains(body, "<Gather") {
		t.Errorf("missing greeting must not open a speech window:\n%s", body)
	}
}

func TestProcessSpeechGathersAgainMidCall(t *testing.T) {
	t.Parallel()

	turns := &stubTurns{out: driver.TurnOutput{Reply: "Anything else?"}}
	srv := New(turns, &stubSettings{}, Config{})
	rec := post(t, srv.Router(), "/process_speech", url.Values{
		"CallSid":      {"CA1"},
		"To":           {"+15550001111"},
		"From":         {"+15557778888"},
		"SpeechResult": {"two biryanis"},
	})

	if turns.last.CallSID != "CA1" || turns.last.Transcript != "two biryanis" {
		t.Errorf("turn input = %+v", turns.last)
	}
	if turns.last.RestaurantPhone != "+15550001111" {
		t.Errorf("restaurant phone = %q, want the dialed number", turns.last.RestaurantPhone)
	}

	body := rec.Body.String()
	for _, want := range []string{"Anything else?", `timeout="20"`, goodbyeFallback} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, "<Hangup") {
		t.Error("mid-call response must not hang up")
	}
}

func TestProcessSpeechRoutesByCallerInDevelopment(t *testing.T) {
	t.Parallel()

	turns := &stubTurns{out: driver.TurnOutput{Reply: "ok"}}
	srv := New(turns, &stubSettings{}, Config{Development: true})
	post(t, srv.Router(), "/process_speech", url.Values{
		"CallSid": {"CA1"},
		"To":      {"+15550001111"},
		"From":    {"+15557778888"},
	})

	if turns.last.RestaurantPhone != "+15557778888" {
		t.Errorf("restaurant phone = %q, want the caller's number", turns.last.RestaurantPhone)
	}
}

func TestProcessSpeechHangsUpOnceConfirmed(t *testing.T) {
	t.Parallel()

	turns := &stubTurns{out: driver.TurnOutput{Reply: "Great! Your order has been placed.", EndCall: true}}
	srv := New(turns, &stubSettings{}, Config{})
	rec := post(t, srv.Router(), "/process_speech", url.Values{"CallSid": {"CA1"}, "To": {"+15550001111"}})

	body := rec.Body.String()
	if !strings.Contains(body, "<Hangup") {
		t.Errorf("confirmed turn should hang up:\n%s", body)
	}
	if strings.Contains(body, "<Gather") {
		t.Errorf("confirmed turn must not gather again:\n%s", body)
	}
}

func TestProcessSpeechFailsPolitely(t *testing.T) {
	t.Parallel()

	turns := &stubTurns{err: errors.New("db down")}
	srv := New(turns, &stubSettings{}, Config{})
	rec := post(t, srv.Router(), "/process_speech", url.Values{"CallSid": {"CA1"}, "To": {"+15550001111"}})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, twilio needs 200 with twiml", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, failureLine) || !strings.Contains(body, "<Hangup") {
		t.Errorf("failure should apologise and hang up:\n%s", body)
	}
}
