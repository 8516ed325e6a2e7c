package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/practice-app/contracts"
	"github.com/yeremiapane/practice-app/models"
	"github.com/yeremiapane/practice-app/services"
	"github.com/yeremiapane/practice-app/utils"
)

type CertificateController struct {
	Workflow *services.CertificateWorkflow
}

func NewCertificateController(workflow *services.CertificateWorkflow) *CertificateController {
	return &CertificateController{Workflow: workflow}
}

// GenerateCertificate -> called by the practice service on completion, or by
// staff
func (cc *CertificateController) GenerateCertificate(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	var req contracts.GenerateCertificateRequest
	if err := bindJSON(c, &req); err != nil {
		utils.RespondServiceError(c, err)
		return
	}

	source := models.CertificateSourceManual
	if actor.Role == models.RoleService {
		source = models.CertificateSourceTrigger
	}
	cert, err := cc.Workflow.Generate(c.Request.Context(), req, source)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Certificate created", cert)
}

// RequestCertificate -> student asks for the certificate of a completed
// placement
func (cc *CertificateController) RequestCertificate(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	var req CertificateStudentRequest
	if err := bindJSON(c, &req); err != nil {
		utils.RespondServiceError(c, err)
		return
	}

	cert, err := cc.Workflow.RequestByStudent(c.Request.Context(), actor, req.PlacementID)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Certificate requested", cert)
}

func (cc *CertificateController) GetCertificate(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	id, err := parseID(c, "id")
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	cert, err := cc.Workflow.GetByID(c.Request.Context(), id, actor)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Certificate detail", cert)
}

func (cc *CertificateController) GetByPlacement(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	placementID, err := parseID(c, "placementId")
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	certs, err := cc.Workflow.GetByPlacement(c.Request.Context(), placementID, actor)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Certificates of placement", certs)
}

func (cc *CertificateController) GetByStudent(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	studentID, err := parseID(c, "studentId")
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	certs, err := cc.Workflow.GetByStudent(c.Request.Context(), studentID, actor)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Certificates of student", certs)
}

func (cc *CertificateController) GetPending(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	certs, err := cc.Workflow.GetPending(c.Request.Context(), actor)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Pending certificates", certs)
}

func (cc *CertificateController) ApproveCertificate(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	id, err := parseID(c, "id")
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	var req ApproveCertificateRequest
	if c.Request.ContentLength != 0 {
		if err := bindJSON(c, &req); err != nil {
			utils.RespondServiceError(c, err)
			return
		}
	}

	cert, err := cc.Workflow.Approve(c.Request.Context(), id, actor, req.Comments)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Certificate approved", cert)
}

func (cc *CertificateController) RejectCertificate(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	id, err := parseID(c, "id")
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	var req ReasonRequest
	if err := bindJSON(c, &req); err != nil {
		utils.RespondServiceError(c, err)
		return
	}

	cert, err := cc.Workflow.Reject(c.Request.Context(), id, actor, req.Reason)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Certificate rejected", cert)
}

func (cc *CertificateController) RevokeCertificate(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	id, err := parseID(c, "id")
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	var req ReasonRequest
	if err := bindJSON(c, &req); err != nil {
		utils.RespondServiceError(c, err)
		return
	}

	cert, err := cc.Workflow.Revoke(c.Request.Context(), id, actor, req.Reason)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Certificate revoked", cert)
}

// DownloadCertificate -> PDF of an APPROVED certificate
func (cc *CertificateController) DownloadCertificate(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	id, err := parseID(c, "id")
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}

	cert, data, err := cc.Workflow.Download(c.Request.Context(), id, actor)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, services.DownloadFileName(cert)))
	c.Data(http.StatusOK, "application/pdf", data)
}
