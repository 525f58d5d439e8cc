package handler

import "net/http"

// listEmails handles GET /admin/email-queue.
func (s *Server) listEmails(w http.ResponseWriter, r *http.Request) {
	emails, err := s.svc.Emails.Recent(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]Email, len(emails))
	for i, e := range emails {
		out[i] = emailToResponse(e)
	}
	writeJSON(w, http.StatusOK, out)
}
