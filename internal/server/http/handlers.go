package internalhttp

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/meetcal/meetcal/internal/app"
	"github.com/meetcal/meetcal/internal/ical"
	"github.com/meetcal/meetcal/internal/occurrence"
	"github.com/meetcal/meetcal/internal/series"
	"github.com/meetcal/meetcal/internal/storage"
	"github.com/meetcal/meetcal/internal/util"
)

type handlers struct {
	app *app.App
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

// writeAppError maps the domain failure taxonomy onto HTTP statuses.
func writeAppError(w http.ResponseWriter, err error) {
	var vErr app.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, "validation_error", vErr.Error())
	case errors.Is(err, app.ErrCalendarDisabled):
		writeError(w, http.StatusBadRequest, "calendar_disabled", err.Error())
	case errors.Is(err, app.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, "permission_denied", err.Error())
	case errors.Is(err, storage.ErrNotFoundCalendar),
		errors.Is(err, storage.ErrNotFoundMeeting):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, storage.ErrDuplicateCalendar),
		errors.Is(err, storage.ErrCalendarNotEmpty):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	default:
		log.Errorf("request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not save")
	}
}

func (h *handlers) listCalendars(w http.ResponseWriter, r *http.Request) {
	calendars, err := h.app.ListCalendars(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, calendars)
}

func (h *handlers) createCalendar(w http.ResponseWriter, r *http.Request) {
	var c storage.Calendar
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed calendar body")
		return
	}
	if err := h.app.CreateCalendar(r.Context(), userFromRequest(r), c); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *handlers) getCalendar(w http.ResponseWriter, r *http.Request) {
	cal, err := h.app.GetCalendar(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cal)
}

func (h *handlers) updateCalendar(w http.ResponseWriter, r *http.Request) {
	var c storage.Calendar
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed calendar body")
		return
	}
	name := mux.Vars(r)["name"]
	if err := h.app.UpdateCalendar(r.Context(), userFromRequest(r), name, c); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *handlers) deleteCalendar(w http.ResponseWriter, r *http.Request) {
	if err := h.app.DeleteCalendar(r.Context(), userFromRequest(r), mux.Vars(r)["name"]); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) listMeetings(w http.ResponseWriter, r *http.Request) {
	start, end, err := dateWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed start/end date")
		return
	}
	meetings, err := h.app.Meetings(r.Context(), mux.Vars(r)["name"], start, end)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMeetingListJSON(meetings))
}

func (h *handlers) createMeeting(w http.ResponseWriter, r *http.Request) {
	var body meetingJSON
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed meeting body")
		return
	}
	m, err := body.meeting()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed date or time field")
		return
	}
	m.CalendarName = mux.Vars(r)["name"]
	created, free, err := h.app.CreateMeeting(r.Context(), userFromRequest(r), m)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		Meeting meetingJSON `json:"meeting"`
		Busy    bool        `json:"busy"`
	}{Meeting: toMeetingJSON(created), Busy: !free})
}

func (h *handlers) weekView(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, _ := strconv.Atoi(q.Get("year"))
	month, _ := strconv.Atoi(q.Get("month"))
	day, _ := strconv.Atoi(q.Get("day"))
	week, err := h.app.GetWeek(
		r.Context(), mux.Vars(r)["name"],
		time.Now().UTC(), year, time.Month(month), day)
	if err != nil {
		writeAppError(w, err)
		return
	}
	days := make([]string, 0, len(week.Days))
	for _, d := range week.Days {
		days = append(days, d.Format(dateFormat))
	}
	writeJSON(w, http.StatusOK, struct {
		Start    string        `json:"start"`
		Days     []string      `json:"days"`
		FullDay  []meetingJSON `json:"fullDay"`
		Meetings []meetingJSON `json:"meetings"`
	}{
		Start:    week.Start.Format(dateFormat),
		Days:     days,
		FullDay:  toMeetingListJSON(week.FullDay),
		Meetings: toMeetingListJSON(week.Meetings),
	})
}

func (h *handlers) icalExport(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	cal, err := h.app.GetCalendar(r.Context(), name)
	if err != nil {
		writeAppError(w, err)
		return
	}
	start, end, err := dateWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed start/end date")
		return
	}
	rows, err := h.app.MeetingRows(r.Context(), name, start, end)
	if err != nil {
		writeAppError(w, err)
		return
	}
	expand := r.URL.Query().Get("expand") == "true"
	body, err := ical.Export(cal, rows, start, end, expand)
	if err != nil {
		writeAppError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar")
	w.Write([]byte(body))
}

func (h *handlers) availability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date, err := parseDate(q.Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed date")
		return
	}
	timeStart, err1 := parseClock(q.Get("timeStart"))
	timeStop, err2 := parseClock(q.Get("timeStop"))
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed timeStart/timeStop")
		return
	}
	free, err := h.app.AgendaIsFree(
		r.Context(), mux.Vars(r)["name"],
		util.At(date, timeStart, time.UTC),
		util.At(date, timeStop, time.UTC))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Free bool `json:"free"`
	}{Free: free})
}

func (h *handlers) getMeeting(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	m, err := h.app.GetMeeting(r.Context(), id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMeetingJSON(m))
}

func (h *handlers) updateMeeting(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	scope, from, err := scopeParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed scope/from parameter")
		return
	}
	var body meetingJSON
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed meeting body")
		return
	}
	m, err := body.meeting()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed date or time field")
		return
	}
	if err := h.app.EditMeeting(r.Context(), userFromRequest(r), id, scope, from, m); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) deleteMeeting(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	scope, from, err := scopeParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed scope/from parameter")
		return
	}
	if err := h.app.DeleteMeeting(r.Context(), userFromRequest(r), id, scope, from); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) managerMeetings(w http.ResponseWriter, r *http.Request) {
	future := r.URL.Query().Get("future") != "false"
	meetings, err := h.app.MeetingsOfManager(
		r.Context(), mux.Vars(r)["username"], time.Now().UTC(), future)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMeetingListJSON(meetings))
}

// dateWindow reads the inclusive start/end query dates, defaulting to
// the current week.
func dateWindow(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()
	now := time.Now().UTC()
	start := occurrence.StartOfWeek(now, 0, 0, 0)
	end := start.AddDate(0, 0, 6)
	var err error
	if v := q.Get("start"); v != "" {
		if start, err = parseDate(v); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if v := q.Get("end"); v != "" {
		if end, err = parseDate(v); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return start, end, nil
}

func scopeParams(r *http.Request) (series.Scope, time.Time, error) {
	q := r.URL.Query()
	scope := series.Scope(q.Get("scope"))
	if scope == "" {
		scope = series.ScopeWhole
	}
	from := time.Time{}
	if v := q.Get("from"); v != "" {
		parsed, err := parseDate(v)
		if err != nil {
			return scope, time.Time{}, err
		}
		from = parsed
	}
	return scope, from, nil
}
