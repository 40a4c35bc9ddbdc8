package api

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/BTreeMap/ThoughtWeaver/internal/models"
	"github.com/BTreeMap/ThoughtWeaver/internal/session"
)

type idRequest struct {
	ID string `json:"id"`
}

type idsRequest struct {
	IDs []string `json:"ids"`
}

type navigateRequest struct {
	Page  string `json:"page"`
	ID    string `json:"id"`
	Token string `json:"token"`
}

type navigationResponse struct {
	Current  session.Target  `json:"current"`
	Previous *session.Target `json:"previous,omitempty"`
	Token    string          `json:"token"`
	// IsCurrent answers a page/id or token query against the current target.
	IsCurrent *bool `json:"is_current,omitempty"`
}

func (s *Server) health(c echo.Context) error {
	return ok(c, map[string]string{"service": "thoughtweaver"})
}

func (s *Server) listRoles(c echo.Context) error {
	return ok(c, s.catalog.Roles())
}

func (s *Server) getRole(c echo.Context) error {
	role, found := s.catalog.LookupRole(c.Param("id"))
	if !found {
		return notFound("role", c.Param("id"))
	}
	return ok(c, role)
}

func (s *Server) listAssistants(c echo.Context) error {
	return ok(c, s.catalog.Assistants())
}

func (s *Server) getAssistant(c echo.Context) error {
	assistant, found := s.catalog.LookupAssistant(c.Param("id"))
	if !found {
		return notFound("assistant", c.Param("id"))
	}
	return ok(c, assistant)
}

func (s *Server) listModels(c echo.Context) error {
	return ok(c, s.catalog.Models())
}

func (s *Server) getSelection(c echo.Context) error {
	return ok(c, s.orch.Session().Selection.State())
}

func (s *Server) setSelectedWorkflow(c echo.Context) error {
	var req idRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("Invalid JSON format")
	}
	sel := s.orch.Session().Selection
	if err := sel.SetWorkflow(req.ID); err != nil {
		return err
	}
	return ok(c, sel.State())
}

func (s *Server) setSelectedAssistants(c echo.Context) error {
	var req idsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("Invalid JSON format")
	}
	for _, id := range req.IDs {
		if _, found := s.catalog.LookupAssistant(id); !found {
			return notFound("assistant", id)
		}
	}
	sel := s.orch.Session().Selection
	if err := sel.SetAssistants(req.IDs); err != nil {
		return err
	}
	return ok(c, sel.State())
}

func (s *Server) toggleSelectedAssistant(c echo.Context) error {
	id := c.Param("id")
	if _, found := s.catalog.LookupAssistant(id); !found {
		return notFound("assistant", id)
	}
	sel := s.orch.Session().Selection
	if err := sel.ToggleAssistant(id); err != nil {
		return err
	}
	return ok(c, sel.State())
}

func (s *Server) setSelectedModel(c echo.Context) error {
	var req idRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("Invalid JSON format")
	}
	if _, found := s.catalog.LookupModel(req.ID); !found && req.ID != "" {
		return notFound("model", req.ID)
	}
	sel := s.orch.Session().Selection
	if err := sel.SetModel(req.ID); err != nil {
		return err
	}
	return ok(c, sel.State())
}

func (s *Server) resetSelection(c echo.Context) error {
	sel := s.orch.Session().Selection
	sel.Reset()
	return ok(c, sel.State())
}

func (s *Server) getNavigation(c echo.Context) error {
	resp := s.navigationState()
	var target session.Target
	switch {
	case c.QueryParam("token") != "":
		target = session.ParseToken(c.QueryParam("token"))
	case c.QueryParam("page") != "":
		target = session.Target{Page: session.Page(c.QueryParam("page")), ID: c.QueryParam("id")}
	default:
		return ok(c, resp)
	}
	is := s.orch.Session().Navigation.IsCurrent(target)
	resp.IsCurrent = &is
	return ok(c, resp)
}

func (s *Server) navigate(c echo.Context) error {
	var req navigateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("Invalid JSON format")
	}
	nav := s.orch.Session().Navigation
	switch {
	case req.Token != "":
		nav.NavigateToken(req.Token)
	case req.Page != "":
		nav.Navigate(session.Target{Page: session.Page(req.Page), ID: req.ID})
	default:
		nav.GoHome()
	}
	return ok(c, s.navigationState())
}

func (s *Server) navigateBack(c echo.Context) error {
	s.orch.Session().Navigation.Back()
	return ok(c, s.navigationState())
}

func (s *Server) navigationState() navigationResponse {
	nav := s.orch.Session().Navigation
	cur := nav.Current()
	resp := navigationResponse{Current: cur, Token: cur.Token()}
	if prev, has := nav.Previous(); has {
		resp.Previous = &prev
	}
	return resp
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, models.ErrNotFound)
}
