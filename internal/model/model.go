// Package model provides data-structs, workflow states and errors for internal app-usage
package model

import (
	"errors"
	"time"

	"github.com/disintegration/imaging"
)

type (
	StateKind string
	SlotName  string
)

const (
	StateIdle      StateKind = "idle"
	StateReady     StateKind = "ready"
	StateInFlight  StateKind = "in_flight"
	StateCompleted StateKind = "completed"
	StateFailed    StateKind = "failed"
)

const (
	SlotPre  SlotName = "pre"
	SlotPost SlotName = "post"
)

var SlotsMap = map[SlotName]bool{
	SlotPre:  true,
	SlotPost: true,
}

// имена частей multipart-запроса к сервису инференса
var FormFieldBySlot = map[SlotName]string{
	SlotPre:  "pre_image",
	SlotPost: "post_image",
}

//---------------------

// State - активное состояние воркфлоу; Reason заполнен только для StateFailed
type State struct {
	Kind   StateKind `json:"kind"`
	Reason string    `json:"reason,omitempty"`
}

func Idle() State      { return State{Kind: StateIdle} }
func Ready() State     { return State{Kind: StateReady} }
func InFlight() State  { return State{Kind: StateInFlight} }
func Completed() State { return State{Kind: StateCompleted} }

func Failed(reason string) State {
	return State{Kind: StateFailed, Reason: reason}
}

// Submittable reports whether the state lets a new analysis start once both slots are filled.
func (s State) Submittable() bool {
	return s.Kind != StateInFlight
}

//---------------------

// Payload - загруженное пользователем изображение или результат анализа
type Payload struct {
	Data        []byte
	Filename    string
	ContentType string
}

func (p Payload) IsEmpty() bool {
	return len(p.Data) == 0
}

// Handle - непрозрачная ссылка на локальный blob, аналог object URL в браузере
type Handle string

const NoHandle Handle = ""

// Snapshot - то, что читает слой представления
type Snapshot struct {
	SessionID string `json:"session_id"`
	State     State  `json:"state"`
	Pre       Handle `json:"pre,omitempty"`
	Post      Handle `json:"post,omitempty"`
	Result    Handle `json:"result,omitempty"`
	CanSubmit bool   `json:"can_submit"`
}

// Health - сводка для /health
type Health struct {
	Sessions int `json:"sessions"`
	Handles  int `json:"handles"`
}

// Export - ключ, под которым результат лег в хранилище
type Export struct {
	Key string `json:"key"`
}

// Notification - уведомление пользователя об исходе анализа
type Notification struct {
	SessionID string    `json:"session_id"`
	Kind      StateKind `json:"kind"`
	Message   string    `json:"message"`
	At        time.Time `json:"at"`
}

// ------------------

// сообщение для пользователя при любой ошибке анализа, без деталей
const MsgAnalyzeFailed = "Error analyzing images. Check backend."

var (
	ErrCommon500         error = errors.New("something went wrong. Try again later")           // 500
	ErrMissingInput      error = errors.New("both pre and post images are required")           // 409
	ErrBusy              error = errors.New("analysis is in progress, try again when it ends") // 409
	ErrRequestFailed     error = errors.New("analysis request failed")                         // 500
	ErrEmptyPayload      error = errors.New("empty image provided")                            // 400
	ErrUnsupportedFormat error = errors.New("unsupported image format")                        // 400
	ErrUnknownSlot       error = errors.New("unknown slot, use pre or post")                   // 400
	ErrHandleNotFound    error = errors.New("display handle doesn't exist or was released")    // 404
	ErrSessionNotFound   error = errors.New("specified session doesn't exist")                 // 404
	ErrSessionClosed     error = errors.New("session is closed")                               // 404
	ErrNoResult          error = errors.New("no analysis result yet")                          // 404
	ErrExportDisabled    error = errors.New("result export is not configured")                 // 503
)

//--------------------

const (
	JPEG = "image/jpeg"
	PNG  = "image/png"
	GIF  = "image/gif"
	BMP  = "image/bmp"
	TIFF = "image/tiff"
)

var GetImageFileExt = map[string]string{
	JPEG: ".jpg",
	PNG:  ".png",
	GIF:  ".gif",
	BMP:  ".bmp",
	TIFF: ".tiff",
}

var GetCType = map[imaging.Format]string{
	imaging.JPEG: JPEG,
	imaging.PNG:  PNG,
	imaging.GIF:  GIF,
	imaging.BMP:  BMP,
	imaging.TIFF: TIFF,
}
