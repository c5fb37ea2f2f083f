package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"argo-assistant/pkg"
)

// Commands are the structured instructions the assistant can embed in a
// reply.  The set is closed: adding a kind means adding a type here and a
// case to the dispatcher, both compile-checked.
type Command interface {
	isCommand()
}

// GenerateReport asks for a pre/post cognitive report PDF.
type GenerateReport struct {
	PatientName string
	PatientAge  int
	Metrics     []pkg.MetricResult
}

func (GenerateReport) isCommand() {}

// ScheduleAppointment asks for a booking.  Date and Time keep the wire form
// ("2006-01-02" and "15:04"); the booking service validates and combines
// them in the clinic time zone.  WhatsApp may be empty for known patients.
type ScheduleAppointment struct {
	PatientName string
	WhatsApp    string
	Date        string
	Time        string
}

func (ScheduleAppointment) isCommand() {}

const defaultPatientName = "Paciente"

type commandEnvelope struct {
	FunctionName string          `json:"function_name"`
	Arguments    json.RawMessage `json:"arguments"`
}

type reportArguments struct {
	PatientName      string          `json:"patient_name"`
	PatientAge       int             `json:"patient_age"`
	CognitiveResults json.RawMessage `json:"cognitive_results"`
}

type scheduleArguments struct {
	PatientName     string `json:"patient_name"`
	PatientWhatsApp string `json:"patient_whatsapp"`
	AppointmentDate string `json:"appointment_date"`
	AppointmentTime string `json:"appointment_time"`
}

// ParseCommand extracts a command from raw assistant output.  Most assistant
// messages are plain prose; those, along with empty input, malformed JSON
// and unknown function names, report ok == false and never an error.  The
// clock is needed only by the free-text scheduling fallback, which resolves
// a year-less date against it.
func ParseCommand(raw string, now time.Time) (Command, bool) {
	s := stripFences(strings.TrimSpace(raw))
	if s == "" {
		return nil, false
	}
	if !strings.HasPrefix(s, "{") {
		// Not a structured object.  Try the legacy free-text booking phrase
		// before giving up.
		if cmd, ok := parseFreeTextSchedule(s, now); ok {
			return cmd, true
		}
		return nil, false
	}
	var env commandEnvelope
	if err := json.Unmarshal([]byte(s), &env); err != nil {
		return nil, false
	}
	switch env.FunctionName {
	case "generate_prepost_report":
		return parseReport(env.Arguments), true
	case "schedule_appointment":
		return parseSchedule(env.Arguments), true
	default:
		return nil, false
	}
}

// stripFences removes the ```json opener and closing ``` the assistant wraps
// around JSON for display.  The fencing is a presentation convention, not
// content.
func stripFences(s string) string {
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimSpace(strings.TrimPrefix(s, "```json"))
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	return s
}

func parseReport(args json.RawMessage) GenerateReport {
	var a reportArguments
	// Decode errors leave the zero value; missing fields get defaults below.
	_ = json.Unmarshal(args, &a)
	cmd := GenerateReport{
		PatientName: a.PatientName,
		PatientAge:  a.PatientAge,
		Metrics:     decodeOrderedMetrics(a.CognitiveResults),
	}
	if strings.TrimSpace(cmd.PatientName) == "" {
		cmd.PatientName = defaultPatientName
	}
	return cmd
}

func parseSchedule(args json.RawMessage) ScheduleAppointment {
	var a scheduleArguments
	_ = json.Unmarshal(args, &a)
	cmd := ScheduleAppointment{
		PatientName: a.PatientName,
		WhatsApp:    strings.TrimSpace(a.PatientWhatsApp),
		Date:        strings.TrimSpace(a.AppointmentDate),
		Time:        strings.TrimSpace(a.AppointmentTime),
	}
	if strings.TrimSpace(cmd.PatientName) == "" {
		cmd.PatientName = defaultPatientName
	}
	return cmd
}

// decodeOrderedMetrics walks the cognitive_results object with the token
// decoder so metric order survives; unmarshalling into a map would lose it.
func decodeOrderedMetrics(raw json.RawMessage) []pkg.MetricResult {
	if len(raw) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil
	}
	var metrics []pkg.MetricResult
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return metrics
		}
		name, ok := keyTok.(string)
		if !ok {
			return metrics
		}
		var pair struct {
			Pre  float64 `json:"pre"`
			Post float64 `json:"post"`
		}
		if err := dec.Decode(&pair); err != nil {
			return metrics
		}
		metrics = append(metrics, pkg.MetricResult{Name: name, Pre: pair.Pre, Post: pair.Post})
	}
	return metrics
}

// Legacy phrasing: "agendale un turno a <nombre> para el <día> de <mes> a
// las <hora> Hs".  No year is given; it resolves to the current year, or the
// next one if that instant has already passed.
var freeTextScheduleRe = regexp.MustCompile(
	`(?i)agendale un turno a\s+(.+?)\s+para el\s+(\d{1,2})\s+de\s+([a-záéíóúñ]+)\s+a las\s+(\d{1,2})(?::(\d{2}))?\s*hs`)

var spanishMonths = map[string]time.Month{
	"enero":      time.January,
	"febrero":    time.February,
	"marzo":      time.March,
	"abril":      time.April,
	"mayo":       time.May,
	"junio":      time.June,
	"julio":      time.July,
	"agosto":     time.August,
	"septiembre": time.September,
	"setiembre":  time.September,
	"octubre":    time.October,
	"noviembre":  time.November,
	"diciembre":  time.December,
}

func parseFreeTextSchedule(s string, now time.Time) (ScheduleAppointment, bool) {
	m := freeTextScheduleRe.FindStringSubmatch(s)
	if m == nil {
		return ScheduleAppointment{}, false
	}
	name := strings.TrimSpace(m[1])
	day, err := strconv.Atoi(m[2])
	if err != nil || day < 1 || day > 31 {
		return ScheduleAppointment{}, false
	}
	month, ok := spanishMonths[strings.ToLower(m[3])]
	if !ok {
		return ScheduleAppointment{}, false
	}
	hour, err := strconv.Atoi(m[4])
	if err != nil || hour > 23 {
		return ScheduleAppointment{}, false
	}
	minute := 0
	if m[5] != "" {
		minute, err = strconv.Atoi(m[5])
		if err != nil || minute > 59 {
			return ScheduleAppointment{}, false
		}
	}
	now = now.In(ClinicZone())
	at := time.Date(now.Year(), month, day, hour, minute, 0, 0, ClinicZone())
	if !at.After(now) {
		at = at.AddDate(1, 0, 0)
	}
	return ScheduleAppointment{
		PatientName: name,
		Date:        at.Format("2006-01-02"),
		Time:        fmt.Sprintf("%02d:%02d", hour, minute),
	}, true
}
