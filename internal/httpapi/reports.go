package httpapi

import (
	"net/http"
)

func (s *Server) netWorthReport(w http.ResponseWriter, r *http.Request) {
	q, ok := r.Context().Value(ctxKeyNetWorth).(netWorthQuery)
	if !ok {
		badRequest(w, "invalid request")
		return
	}
	points, err := s.networthSvc.Trend(r.Context(), q.UserID, q.Months)
	if err != nil {
		s.domainErr(w, err)
		return
	}
	out := netWorthResponse{Points: make([]netWorthPoint, 0, len(points))}
	for _, p := range points {
		out.Points = append(out.Points, netWorthPoint{Month: p.Month, NetWorth: p.NetWorth.String()})
	}
	toJSON(w, http.StatusOK, out)
}
