// Package twiml renders the small subset of Twilio voice markup this
// service speaks: a prompt, an optional speech-gathering window, and a
// hangup. Voice selection and anything fancier belongs to the
// telephony collaborator.
package twiml

import (
	"encoding/xml"
	"fmt"
)

type Say struct {
	XMLName  xml.Name `xml:"Say"`
	Voice    string   `xml:"voice,attr,omitempty"`
	Language string   `xml:"language,attr,omitempty"`
	Text     string   `xml:",chardata"`
}

type Gather struct {
	XMLName       xml.Name `xml:"Gather"`
	Input         string   `xml:"input,attr"`
	Action        string   `xml:"action,attr"`
	Method        string   `xml:"method,attr"`
	Timeout       int      `xml:"timeout,attr"`
	SpeechTimeout string   `xml:"speechTimeout,attr,omitempty"`
	Say           *Say     `xml:"Say,omitempty"`
}

type Hangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

// Response is a TwiML document. Verb order is fixed: an optional
// gather, an optional trailing prompt, an optional hangup. That covers
// both call flows here (gather-with-fallback and say-then-hangup).
type Response struct {
	XMLName xml.Name `xml:"Response"`
	Gather  *Gather  `xml:"Gather,omitempty"`
	Say     *Say     `xml:"Say,omitempty"`
	Hangup  *Hangup  `xml:"Hangup,omitempty"`
}

func say(text string) *Say {
	return &Say{Voice: "man", Language: "en-US", Text: text}
}

// GatherSpeech prompts the caller and opens a speech window posting to
// action. fallback is spoken only when the window times out with no
// speech.
func GatherSpeech(prompt, action string, timeoutSeconds int, fallback string) Response {
	return Response{
		Gather: &Gather{
			Input:         "speech",
			Action:        action,
			Method:        "POST",
			Timeout:       timeoutSeconds,
			SpeechTimeout: "auto",
			Say:           say(prompt),
		},
		Say: say(fallback),
	}
}

// SayAndHangup speaks text and ends the call.
func SayAndHangup(text string) Response {
	return Response{
		Say:    say(text),
		Hangup: &Hangup{},
	}
}

// Render marshals the document with an XML declaration.
func Render(r Response) (string, error) {
	body, err := xml.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("twiml: marshal response: %w", err)
	}
	return xml.Header + string(body), nil
}
