package http

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/dmitrijs2005/gophaccounts/internal/filex"
	"github.com/dmitrijs2005/gophaccounts/internal/server/models"
	"github.com/gin-gonic/gin"
)

func (s *HTTPServer) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, common.BadRequest(err.Error()))
		return
	}

	session, err := s.sessions.Signup(c.Request.Context(), req.Email, req.Password, models.ProfileFields{
		Name:         req.Name,
		Subscription: req.Subscription,
	})
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

func (s *HTTPServer) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, common.BadRequest(err.Error()))
		return
	}

	session, err := s.sessions.Signin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (s *HTTPServer) logout(c *gin.Context) {
	if err := s.sessions.Logout(c.Request.Context(), currentUser(c).ID); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *HTTPServer) current(c *gin.Context) {
	c.JSON(http.StatusOK, s.sessions.Current(currentUser(c)))
}

// updateAvatar stages the "avatar" form file on disk. A missing part gives a
// nil reference, a failed write gives a reference without a path. The staged
// file is removed again when the update fails.
func (s *HTTPServer) updateAvatar(c *gin.Context) {
	user := currentUser(c)

	var ref *models.FileRef
	fh, err := c.FormFile("avatar")
	switch {
	case err == nil:
		ref = &models.FileRef{OriginalName: fh.Filename, ContentType: fh.Header.Get("Content-Type")}
		dst := filex.StagingPath(s.uploadDir, user.ID, fh.Filename)
		if err := c.SaveUploadedFile(fh, dst); err != nil {
			s.logger.Warn(c.Request.Context(), "staging upload failed", "user_id", user.ID, "error", err.Error())
		} else {
			ref.Path = dst
		}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		s.abortWithError(c, common.BadRequest(err.Error()))
		return
	}

	profile, err := s.profiles.UpdateAvatar(c.Request.Context(), user.ID, ref)
	if err != nil {
		if ref != nil {
			filex.RemoveWithin(s.uploadDir, ref.Path)
		}
		s.abortWithError(c, err)
		return
	}

	// a replaced avatar kept by the local store is no longer referenced
	if user.AvatarURL != profile.AvatarURL {
		filex.RemoveWithin(s.uploadDir, user.AvatarURL)
	}

	c.JSON(http.StatusOK, profile)
}

func (s *HTTPServer) updateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, common.BadRequest(err.Error()))
		return
	}

	profile, err := s.profiles.UpdateProfile(c.Request.Context(), currentUser(c), models.ProfileUpdate{
		Name:         req.Name,
		Email:        req.Email,
		Subscription: req.Subscription,
		Password:     req.Password,
	})
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (s *HTTPServer) googleAuth(c *gin.Context) {
	target, err := s.federated.Initiate(c.Request.Context())
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Redirect(http.StatusFound, target)
}

func (s *HTTPServer) googleRedirect(c *gin.Context) {
	if providerErr := c.Query("error"); providerErr != "" {
		s.abortWithError(c, common.Upstream("Provider denied the request", errors.New(providerErr)))
		return
	}

	target, err := s.federated.Complete(c.Request.Context(), c.Query("code"), c.Query("state"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Redirect(http.StatusFound, target)
}
