package resumes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/karthik1704/rsr-v1/internal/shared/apperr"
	"github.com/karthik1704/rsr-v1/internal/shared/server/middleware"
	"github.com/karthik1704/rsr-v1/internal/shared/server/respond"
)

const imageField = "file"

type Handler struct {
	Svc           *Service
	MaxImageBytes int64
}

func NewHandler(svc *Service, maxImageBytes int64) *Handler {
	return &Handler{Svc: svc, MaxImageBytes: maxImageBytes}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/resumes", h.create)
	rg.GET("/resumes/me", h.mine)
	rg.GET("/resumes/:id", h.get)
	rg.PUT("/resumes/:id", h.update)
	rg.PATCH("/resumes/:id", h.patch)
	rg.DELETE("/resumes/:id", h.delete)
	rg.PUT("/resumes/:id/image", h.setImage)
	rg.GET("/resumes/:id/image", h.image)

	registerCollection(rg, h.Svc.Experiences())
	registerCollection(rg, h.Svc.Educations())
	registerCollection(rg, h.Svc.LanguageSkills())
	registerCollection(rg, h.Svc.DrivingLicenses())
	registerCollection(rg, h.Svc.TrainingAwards())
	registerCollection(rg, h.Svc.Others())
}

func (h *Handler) create(c *gin.Context) {
	var patch ResumePatch
	if err := bindOptionalJSON(c, &patch); err != nil {
		respond.BindError(c, err)
		return
	}
	agg, err := h.Svc.Create(c.Request.Context(), middleware.UserIDFromContext(c), patch)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	c.Set(middleware.ResumeIDKey, agg.ID)
	respond.Created(c, agg)
}

func (h *Handler) mine(c *gin.Context) {
	agg, err := h.Svc.GetMine(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, agg)
}

func (h *Handler) get(c *gin.Context) {
	agg, err := h.Svc.GetOwned(c.Request.Context(), middleware.UserIDFromContext(c), resumeID(c))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, agg)
}

func (h *Handler) update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}
	agg, err := h.Svc.Update(c.Request.Context(), middleware.UserIDFromContext(c), resumeID(c), req)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, agg)
}

func (h *Handler) patch(c *gin.Context) {
	var patch ResumePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respond.BindError(c, err)
		return
	}
	agg, err := h.Svc.UpdateScalars(c.Request.Context(), middleware.UserIDFromContext(c), resumeID(c), patch)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, agg)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), middleware.UserIDFromContext(c), resumeID(c)); err != nil {
		respond.FromError(c, err)
		return
	}
	respond.NoContent(c)
}

func (h *Handler) setImage(c *gin.Context) {
	if h.MaxImageBytes > 0 {
		// Leave room for the multipart framing around the file itself.
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxImageBytes+1<<20)
	}
	fh, err := c.FormFile(imageField)
	if err != nil {
		respond.FromError(c, apperr.Invalid("invalid upload", apperr.FieldIssue{Field: imageField, Issue: "required"}))
		return
	}
	f, err := fh.Open()
	if err != nil {
		respond.FromError(c, apperr.Validation("could not read upload"))
		return
	}
	defer f.Close()

	agg, err := h.Svc.SetImage(c.Request.Context(), middleware.UserIDFromContext(c), resumeID(c),
		fh.Filename, fh.Header.Get("Content-Type"), f)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, agg)
}

func (h *Handler) image(c *gin.Context) {
	img, err := h.Svc.Image(c.Request.Context(), middleware.UserIDFromContext(c), resumeID(c))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	c.Header("Cache-Control", "private, max-age=300")
	c.Data(http.StatusOK, img.ContentType, img.Data)
}

func registerCollection[R, P any](rg *gin.RouterGroup, col Collection[R, P]) {
	base := "/resumes/:id/" + col.Name()

	rg.GET(base, func(c *gin.Context) {
		list, err := col.List(c.Request.Context(), middleware.UserIDFromContext(c), resumeID(c))
		if err != nil {
			respond.FromError(c, err)
			return
		}
		respond.OK(c, list)
	})

	rg.POST(base, func(c *gin.Context) {
		var p P
		if err := c.ShouldBindJSON(&p); err != nil {
			respond.BindError(c, err)
			return
		}
		rec, err := col.Add(c.Request.Context(), middleware.UserIDFromContext(c), resumeID(c), p)
		if err != nil {
			respond.FromError(c, err)
			return
		}
		respond.Created(c, rec)
	})

	rg.PUT(base+"/multi", func(c *gin.Context) {
		var list []P
		if err := c.ShouldBindJSON(&list); err != nil {
			respond.BindError(c, err)
			return
		}
		out, err := col.Sync(c.Request.Context(), middleware.UserIDFromContext(c), resumeID(c), list)
		if err != nil {
			respond.FromError(c, err)
			return
		}
		respond.OK(c, out)
	})

	rg.PATCH(base+"/:childId", func(c *gin.Context) {
		var p P
		if err := c.ShouldBindJSON(&p); err != nil {
			respond.BindError(c, err)
			return
		}
		rec, err := col.Patch(c.Request.Context(), middleware.UserIDFromContext(c), resumeID(c), c.Param("childId"), p)
		if err != nil {
			respond.FromError(c, err)
			return
		}
		respond.OK(c, rec)
	})

	rg.DELETE(base+"/:childId", func(c *gin.Context) {
		if err := col.Remove(c.Request.Context(), middleware.UserIDFromContext(c), resumeID(c), c.Param("childId")); err != nil {
			respond.FromError(c, err)
			return
		}
		respond.NoContent(c)
	})
}

func resumeID(c *gin.Context) string {
	id := c.Param("id")
	c.Set(middleware.ResumeIDKey, id)
	return id
}

// bindOptionalJSON accepts an empty body as an empty object.
func bindOptionalJSON(c *gin.Context, dst any) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	return c.ShouldBindJSON(dst)
}
