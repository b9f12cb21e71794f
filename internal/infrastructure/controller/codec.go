// Package controller реализует текстовый протокол контроллера моторов
// и доступ к нему через транспорт.
//
// Команды: aNNN (угол), sNNN (скорость), mm/ma (режим), r (сброс).
// Ответы: A:NNN, S:NNN, M:man, M:auto, E:len, E:<команда>-.
package controller

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"lane-pilot/internal/domain/entity"
)

// Ограничения прошивки
const (
	MaxMessageLen    = 4
	maxPayloadDigits = MaxMessageLen - 1
)

// Теги команд
const (
	TagAngle byte = 'a'
	TagSpeed byte = 's'
	TagMode  byte = 'm'
	TagReset byte = 'r'
)

var (
	ErrPayloadTooLong    = errors.New("payload exceeds device limit")
	ErrInvalidPayload    = errors.New("invalid payload")
	ErrMalformedResponse = errors.New("malformed device response")
	ErrAckMismatch       = errors.New("acknowledgement does not match command")

	ErrDeviceLength     = errors.New("device rejected command: too long")
	ErrDeviceUnknownTag = errors.New("device rejected command: unknown tag")
	ErrDeviceMalformed  = errors.New("device rejected command: malformed payload")
)

// Message одна команда протокола, пишется в порт целиком
type Message string

// Tag первый символ команды
func (m Message) Tag() byte {
	if len(m) == 0 {
		return 0
	}
	return m[0]
}

// EncodeAngle команда угла в единицах контроллера: 73 -> "a73"
func EncodeAngle(units int) (Message, error) {
	return encodeNumeric(TagAngle, units)
}

// EncodeSpeed команда скорости: 50 -> "s50"
func EncodeSpeed(units int) (Message, error) {
	return encodeNumeric(TagSpeed, units)
}

// EncodeMode команда режима: "mm" или "ma"
func EncodeMode(mode entity.Mode) (Message, error) {
	switch mode {
	case entity.ModeManual:
		return "mm", nil
	case entity.ModeAuto:
		return "ma", nil
	default:
		return "", fmt.Errorf("%w: mode %v", ErrInvalidPayload, mode)
	}
}

// EncodeReset команда сброса; ответа у неё нет
func EncodeReset() Message {
	return Message(TagReset)
}

func encodeNumeric(tag byte, v int) (Message, error) {
	if v < 0 {
		return "", fmt.Errorf("%w: %c%d is negative", ErrInvalidPayload, tag, v)
	}
	digits := strconv.Itoa(v)
	if len(digits) > maxPayloadDigits {
		return "", fmt.Errorf("%w: %c%s", ErrPayloadTooLong, tag, digits)
	}
	return Message(string(tag) + digits), nil
}

// AngleMapping перевод градусов в единицы контроллера: центр 90, влево меньше
type AngleMapping struct {
	Center int
	Min    int
	Max    int
}

// DefaultAngleMapping 0..180 с центром 90
func DefaultAngleMapping() AngleMapping {
	return AngleMapping{Center: 90, Min: 0, Max: 180}
}

// Units переводит угол в градусах в единицы контроллера с насыщением
func (m AngleMapping) Units(degrees int) int {
	v := m.Center + degrees
	if v < m.Min {
		return m.Min
	}
	if v > m.Max {
		return m.Max
	}
	return v
}

// Encode команда кадра: угол и скорость
func Encode(cmd entity.SteeringCommand, mapping AngleMapping) ([]Message, error) {
	angle, err := EncodeAngle(mapping.Units(cmd.AngleDegrees))
	if err != nil {
		return nil, err
	}
	speed, err := EncodeSpeed(cmd.Speed)
	if err != nil {
		return nil, err
	}
	return []Message{angle, speed}, nil
}

// ResponseKind вид ответа контроллера
type ResponseKind int

const (
	ResponseAngle ResponseKind = iota + 1
	ResponseSpeed
	ResponseMode
	ResponseError
)

func (k ResponseKind) String() string {
	switch k {
	case ResponseAngle:
		return "angle"
	case ResponseSpeed:
		return "speed"
	case ResponseMode:
		return "mode"
	case ResponseError:
		return "error"
	default:
		return fmt.Sprintf("ResponseKind(%d)", int(k))
	}
}

// Response разобранный ответ
type Response struct {
	Kind  ResponseKind
	Value int          // для A: и S:
	Mode  entity.Mode  // для M:
	Err   *DeviceError // для E:
	Raw   string
}

// DeviceErrorCode код ошибки прошивки
type DeviceErrorCode int

const (
	DeviceErrLength DeviceErrorCode = iota + 1
	DeviceErrUnknownTag
	DeviceErrMalformed
)

// DeviceError ошибка, которую вернул сам контроллер
type DeviceError struct {
	Code    DeviceErrorCode
	Command string // команда, на которую пожаловался контроллер (кроме E:len)
	Raw     string
}

func (e *DeviceError) Error() string {
	if e.Code == DeviceErrLength {
		return fmt.Sprintf("%v (%s)", e.sentinel(), e.Raw)
	}
	return fmt.Sprintf("%v: %q (%s)", e.sentinel(), e.Command, e.Raw)
}

// Is позволяет сравнивать через errors.Is с ErrDevice*
func (e *DeviceError) Is(target error) bool {
	return target == e.sentinel()
}

func (e *DeviceError) sentinel() error {
	switch e.Code {
	case DeviceErrLength:
		return ErrDeviceLength
	case DeviceErrUnknownTag:
		return ErrDeviceUnknownTag
	default:
		return ErrDeviceMalformed
	}
}

// Decode разбирает одну строку ответа. Для E:* возвращает и Response, и *DeviceError.
func Decode(line string) (Response, error) {
	raw := strings.TrimSpace(line)
	resp := Response{Raw: raw}
	if len(raw) < 3 || raw[1] != ':' {
		return resp, fmt.Errorf("%w: %q", ErrMalformedResponse, raw)
	}
	body := raw[2:]

	switch raw[0] {
	case 'A', 'S':
		v, err := parseDigits(body)
		if err != nil {
			return resp, fmt.Errorf("%w: %q", ErrMalformedResponse, raw)
		}
		resp.Kind = ResponseAngle
		if raw[0] == 'S' {
			resp.Kind = ResponseSpeed
		}
		resp.Value = v
		return resp, nil

	case 'M':
		switch body {
		case "man":
			resp.Mode = entity.ModeManual
		case "auto":
			resp.Mode = entity.ModeAuto
		default:
			return resp, fmt.Errorf("%w: %q", ErrMalformedResponse, raw)
		}
		resp.Kind = ResponseMode
		return resp, nil

	case 'E':
		devErr := &DeviceError{Raw: raw}
		switch {
		case body == "len":
			devErr.Code = DeviceErrLength
		case len(body) > 1 && strings.HasSuffix(body, "-"):
			devErr.Command = strings.TrimSuffix(body, "-")
			devErr.Code = DeviceErrMalformed
			if !knownTag(devErr.Command[0]) {
				devErr.Code = DeviceErrUnknownTag
			}
		default:
			return resp, fmt.Errorf("%w: %q", ErrMalformedResponse, raw)
		}
		resp.Kind = ResponseError
		resp.Err = devErr
		return resp, devErr
	}

	return resp, fmt.Errorf("%w: %q", ErrMalformedResponse, raw)
}

// Match проверяет, что ответ подтверждает именно отправленную команду
func Match(sent Message, resp Response) error {
	if resp.Kind == ResponseError && resp.Err != nil {
		return resp.Err
	}

	switch sent.Tag() {
	case TagAngle, TagSpeed:
		want, err := parseDigits(string(sent[1:]))
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidPayload, sent)
		}
		kind := ResponseAngle
		if sent.Tag() == TagSpeed {
			kind = ResponseSpeed
		}
		if resp.Kind != kind || resp.Value != want {
			return fmt.Errorf("%w: sent %q, got %q", ErrAckMismatch, sent, resp.Raw)
		}
		return nil
	case TagMode:
		want := entity.ModeManual
		if sent == "ma" {
			want = entity.ModeAuto
		}
		if resp.Kind != ResponseMode || resp.Mode != want {
			return fmt.Errorf("%w: sent %q, got %q", ErrAckMismatch, sent, resp.Raw)
		}
		return nil
	case TagReset:
		return nil
	default:
		return fmt.Errorf("%w: sent %q, got %q", ErrAckMismatch, sent, resp.Raw)
	}
}

func knownTag(b byte) bool {
	switch b {
	case TagAngle, TagSpeed, TagMode, TagReset:
		return true
	}
	return false
}

func parseDigits(s string) (int, error) {
	if s == "" {
		return 0, errors.New("empty number")
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("non-digit %q", s[i])
		}
	}
	return strconv.Atoi(s)
}

// Framer режет поток байт на строки ответов
type Framer struct {
	buf []byte
}

// Feed добавляет байты и возвращает законченные непустые строки
func (f *Framer) Feed(data []byte) []string {
	f.buf = append(f.buf, data...)
	var lines []string
	for {
		i := strings.IndexByte(string(f.buf), '\n')
		if i < 0 {
			break
		}
		line := strings.TrimSpace(string(f.buf[:i]))
		f.buf = f.buf[i+1:]
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Pending непрочитанный хвост без перевода строки
func (f *Framer) Pending() string {
	return string(f.buf)
}

// Flush отдаёт хвост без перевода строки как последнюю строку и очищает буфер
func (f *Framer) Flush() []string {
	line := strings.TrimSpace(string(f.buf))
	f.buf = nil
	if line == "" {
		return nil
	}
	return []string{line}
}
