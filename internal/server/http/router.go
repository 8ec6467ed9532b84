package internalhttp

import (
	"github.com/gorilla/mux"

	"github.com/meetcal/meetcal/internal/app"
)

// NewRouter builds the REST routing table over the application layer.
func NewRouter(a *app.App) *mux.Router {
	h := &handlers{app: a}

	r := mux.NewRouter()
	r.Use(loggingMiddleware)
	r.Use(recoveryMiddleware)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/calendars", h.listCalendars).Methods("GET")
	api.HandleFunc("/calendars", h.createCalendar).Methods("POST")
	api.HandleFunc("/calendars/{name}", h.getCalendar).Methods("GET")
	api.HandleFunc("/calendars/{name}", h.updateCalendar).Methods("PUT")
	api.HandleFunc("/calendars/{name}", h.deleteCalendar).Methods("DELETE")

	api.HandleFunc("/calendars/{name}/meetings", h.listMeetings).Methods("GET")
	api.HandleFunc("/calendars/{name}/meetings", h.createMeeting).Methods("POST")
	api.HandleFunc("/calendars/{name}/week", h.weekView).Methods("GET")
	api.HandleFunc("/calendars/{name}/ical", h.icalExport).Methods("GET")
	api.HandleFunc("/calendars/{name}/availability", h.availability).Methods("GET")

	api.HandleFunc("/meetings/{id:[0-9]+}", h.getMeeting).Methods("GET")
	api.HandleFunc("/meetings/{id:[0-9]+}", h.updateMeeting).Methods("PUT")
	api.HandleFunc("/meetings/{id:[0-9]+}", h.deleteMeeting).Methods("DELETE")
	api.HandleFunc("/meetings/manager/{username}", h.managerMeetings).Methods("GET")

	return r
}
