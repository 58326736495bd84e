package server

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"voicechef/agent/driver"
	"voicechef/pkg/twiml"
)

// handleVoice answers the call: greet, then open the first speech
// window posting to /process_speech. The greeting is a required admin
// setting; a call that cannot be greeted cannot be taken either, so a
// missing key fails the call.
func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	greeting, err := s.settings.Get(r.Context(), SettingKeyGreeting)
	if err != nil {
		log.Error().Err(err).Msg("greeting setting unavailable")
		s.writeTwiML(w, twiml.SayAndHangup(failureLine))
		return
	}

	log.Info().Str("call_sid", r.PostFormValue("CallSid")).Msg("call started")
	s.writeTwiML(w, twiml.GatherSpeech(greeting, "/process_speech/", greetTimeoutSeconds, repromptFallback))
}

// handleProcessSpeech runs once per gathered utterance and loops the
// call back into another gather until the order is confirmed.
func (s *Server) handleProcessSpeech(w http.ResponseWriter, r *http.Request) {
	callSID := r.PostFormValue("CallSid")

	restaurantPhone := r.PostFormValue("To")
	if s.development {
		restaurantPhone = r.PostFormValue("From")
	}
	transcript := r.PostFormValue("SpeechResult")

	out, err := s.turns.HandleTurn(r.Context(), driver.TurnInput{
		CallSID:         callSID,
		RestaurantPhone: restaurantPhone,
		Transcript:      transcript,
	})
	if err != nil {
		log.Error().Err(err).Str("call_sid", callSID).Msg("turn failed")
		s.writeTwiML(w, twiml.SayAndHangup(failureLine))
		return
	}

	log.Info().
		Str("call_sid", callSID).
		Bool("end_call", out.EndCall).
		Msg("turn handled")

	if out.EndCall {
		s.writeTwiML(w, twiml.SayAndHangup(out.Reply))
		return
	}
	s.writeTwiML(w, twiml.GatherSpeech(out.Reply, "/process_speech/", gatherTimeoutSeconds, goodbyeFallback))
}

func (s *Server) writeTwiML(w http.ResponseWriter, resp twiml.Response) {
	body, err := twiml.Render(resp)
	if err != nil {
		log.Error().Err(err).Msg("render twiml")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/xml")
	_, _ = w.Write([]byte(body))
}
