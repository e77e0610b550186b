package web

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/clientadmin/internal/common"
	"github.com/dmitrijs2005/clientadmin/internal/server/records"
	"github.com/gin-gonic/gin"
)

// maxGridRows bounds the row count a grid submission may claim.
const maxGridRows = 5000

var notices = map[string]string{
	"saved":   "✅ Changes saved.",
	"added":   "✅ Record added.",
	"deleted": "✅ Selected records deleted.",
}

// gridRow is a displayed record and its index in the full collection.
type gridRow struct {
	records.Record
	Index int
}

type indexPage struct {
	Query    string
	Rows     []gridRow
	Total    int
	Revision string
	Brokers  []string
	Notice   string
	Alert    string
	Warning  bool
	Blocked  bool
	Form     map[string]string
}

type loginPage struct {
	Error string
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) loginPage(c *gin.Context) {
	if currentSession(c).Authenticated {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	c.HTML(http.StatusOK, "login.html", loginPage{})
}

func (s *Server) login(c *gin.Context) {
	if !s.parseForm(c) {
		return
	}

	sess := currentSession(c)
	if err := s.gate.Authenticate(c.Request.Context(), sess, c.PostForm("password")); err != nil {
		s.logger.Warn(c.Request.Context(), "login rejected", "client_ip", c.ClientIP())
		c.HTML(http.StatusUnauthorized, "login.html", loginPage{Error: "Unauthorized"})
		return
	}

	token, err := s.codec.Encode(sess)
	if err != nil {
		s.logger.Error(c.Request.Context(), "encode session", "error", err)
		c.HTML(http.StatusInternalServerError, "login.html", loginPage{Error: "Internal error, try again."})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(common.SessionCookieName, token, 0, "/", "", c.Request.TLS != nil, true)
	s.logger.Info(c.Request.Context(), "operator logged in", "session_id", sess.ID)

	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) index(c *gin.Context) {
	q := c.Query("q")

	snap, err := s.records.Load(c.Request.Context())
	if err != nil {
		s.render(c, nil, q, nil, err)
		return
	}

	page := s.page(snap, q, nil)
	page.Notice = notices[c.Query("notice")]
	c.HTML(http.StatusOK, "index.html", page)
}

func (s *Server) editRecords(c *gin.Context) {
	if !s.parseForm(c) {
		return
	}
	q := c.PostForm("q")

	rows, err := parseGrid(c)
	if err != nil {
		s.renderCurrent(c, q, nil, err)
		return
	}

	snap, err := s.records.Edit(c.Request.Context(), rows, c.PostForm("revision"))
	if err != nil {
		s.render(c, snap, q, nil, err)
		return
	}

	s.redirectIndex(c, q, "saved")
}

func (s *Server) createRecord(c *gin.Context) {
	if !s.parseForm(c) {
		return
	}
	q := c.PostForm("q")

	values := make(map[string]string, len(records.Fields))
	for _, f := range records.Fields {
		values[f] = c.PostForm(f)
	}
	values["client_id"] = strings.TrimSpace(values["client_id"])

	rec, err := records.ParseRecord(values)
	if err == nil {
		var snap *records.Snapshot
		snap, err = s.records.Create(c.Request.Context(), rec, c.PostForm("revision"))
		if err != nil {
			s.render(c, snap, q, values, err)
			return
		}
		s.redirectIndex(c, q, "added")
		return
	}

	s.renderCurrent(c, q, values, err)
}

func (s *Server) deleteRecords(c *gin.Context) {
	if !s.parseForm(c) {
		return
	}
	q := c.PostForm("q")

	snap, err := s.records.Delete(c.Request.Context(), c.PostFormArray("delete"), c.PostForm("revision"))
	if err != nil {
		s.render(c, snap, q, nil, err)
		return
	}

	s.redirectIndex(c, q, "deleted")
}

// parseForm reads the urlencoded body up front so an oversized body is
// reported instead of showing up as empty fields.
func (s *Server) parseForm(c *gin.Context) bool {
	err := c.Request.ParseForm()
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
		return false
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "malformed form"})
	return false
}

// parseGrid reads rows row-<i>-<field> for i in [0, rows). row-<i>-index is
// the row's position in the collection; a missing index is -1.
func parseGrid(c *gin.Context) ([]records.Row, error) {
	n, err := strconv.Atoi(c.PostForm("rows"))
	if err != nil || n < 0 || n > maxGridRows {
		return nil, fmt.Errorf("%w: bad row count %q", common.ErrValidation, c.PostForm("rows"))
	}

	out := make([]records.Row, 0, n)
	for i := 0; i < n; i++ {
		index := -1
		if raw := c.PostForm(fmt.Sprintf("row-%d-index", i)); raw != "" {
			index, err = strconv.Atoi(raw)
			if err != nil || index < 0 {
				return nil, fmt.Errorf("%w: row %d: bad index %q", common.ErrValidation, i+1, raw)
			}
		}

		values := make(map[string]string, len(records.Fields))
		for _, f := range records.Fields {
			values[f] = c.PostForm(fmt.Sprintf("row-%d-%s", i, f))
		}

		r, err := records.ParseRecord(values)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out = append(out, records.Row{Index: index, Record: r})
	}

	return out, nil
}

func (s *Server) redirectIndex(c *gin.Context, q, notice string) {
	v := url.Values{}
	if q != "" {
		v.Set("q", q)
	}
	v.Set("notice", notice)
	c.Redirect(http.StatusSeeOther, "/?"+v.Encode())
}

// renderCurrent reloads the document and renders it with err.
func (s *Server) renderCurrent(c *gin.Context, q string, form map[string]string, err error) {
	snap, loadErr := s.records.Load(c.Request.Context())
	if loadErr != nil {
		s.render(c, nil, q, form, loadErr)
		return
	}
	s.render(c, snap, q, form, err)
}

// render shows the table page with an alert for err. Without a snapshot
// the page is blocked and only shows the alert.
func (s *Server) render(c *gin.Context, snap *records.Snapshot, q string, form map[string]string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(c.Request.Context(), "request failed", "path", c.Request.URL.Path, "error", err)
	} else {
		s.logger.Warn(c.Request.Context(), "request rejected", "path", c.Request.URL.Path, "error", err)
	}

	page := s.page(snap, q, form)
	page.Alert = alertFor(err)
	page.Warning = errors.Is(err, common.ErrNothingSelected)

	c.HTML(status, "index.html", page)
}

func (s *Server) page(snap *records.Snapshot, q string, form map[string]string) indexPage {
	if form == nil {
		form = map[string]string{"broker": records.DefaultBroker}
	}

	p := indexPage{Query: q, Brokers: records.Brokers, Form: form}
	if snap == nil {
		p.Blocked = true
		return p
	}

	for _, i := range records.Positions(snap.Records, q) {
		p.Rows = append(p.Rows, gridRow{Record: snap.Records[i], Index: i})
	}
	p.Total = len(snap.Records)
	p.Revision = snap.Revision
	return p
}

func statusFor(err error) int {
	switch {
	case err == nil, errors.Is(err, common.ErrNothingSelected):
		return http.StatusOK
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrDuplicateKey), errors.Is(err, common.ErrVersionConflict):
		return http.StatusConflict
	case errors.Is(err, common.ErrLoad), errors.Is(err, common.ErrSave):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func alertFor(err error) string {
	switch {
	case errors.Is(err, common.ErrNothingSelected):
		return "Nothing selected."
	case errors.Is(err, common.ErrDuplicateKey):
		return "A record with this client_id already exists: " + err.Error()
	case errors.Is(err, common.ErrVersionConflict):
		return "The table was changed by someone else. Reload and apply your changes again."
	case errors.Is(err, common.ErrLoad):
		return "Could not load the client table: " + err.Error()
	case errors.Is(err, common.ErrSave):
		return "Saving failed: " + err.Error()
	case errors.Is(err, common.ErrValidation):
		return "Invalid input: " + err.Error()
	}
	return "Internal error."
}
