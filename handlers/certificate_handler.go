package handlers

import (
	"fmt"

	"github.com/anjiri1684/training_portal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CertificateHandler struct {
	certificates *services.CertificateService
	log          *zap.Logger
}

func NewCertificateHandler(certificates *services.CertificateService, log *zap.Logger) *CertificateHandler {
	return &CertificateHandler{certificates: certificates, log: log}
}

type GenerateByNameRequest struct {
	Name       string `json:"name" validate:"required,max=255"`
	CourseName string `json:"courseName" validate:"required,max=255"`
}

type GenerateByIDRequest struct {
	CourseName string `json:"courseName" validate:"required,max=255"`
}

// GenerateByName issues a certificate for the student with the given full name.
func (h *CertificateHandler) GenerateByName(c *fiber.Ctx) error {
	var req GenerateByNameRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	issued, err := h.certificates.IssueByStudentName(c.UserContext(), req.Name, req.CourseName)
	if err != nil {
		return serviceError(err)
	}
	return sendIssued(c, issued, req.Name)
}

func (h *CertificateHandler) GenerateByStudentID(c *fiber.Ctx) error {
	studentID, err := uuid.Parse(c.Params("studentId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid student id")
	}

	var req GenerateByIDRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	issued, err := h.certificates.IssueByStudentID(c.UserContext(), studentID, req.CourseName)
	if err != nil {
		return serviceError(err)
	}
	return sendIssued(c, issued, issued.StudentName)
}

func (h *CertificateHandler) Verify(c *fiber.Ctx) error {
	code := c.Query("code")
	if code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Query parameter code is required")
	}

	record, err := h.certificates.Verify(c.UserContext(), code)
	if err != nil {
		return err
	}
	if record == nil {
		return fiber.NewError(fiber.StatusNotFound, "Certificate not found")
	}
	return c.JSON(record)
}

func (h *CertificateHandler) Download(c *fiber.Ctx) error {
	doc, err := h.certificates.FetchDocument(c.UserContext(), c.Params("certNo"))
	if err != nil {
		return err
	}
	if doc == nil {
		return fiber.NewError(fiber.StatusNotFound, "Certificate not found")
	}
	return sendPDF(c, doc.Bytes, doc.Filename)
}

func sendIssued(c *fiber.Ctx, issued *services.IssuedCertificate, subject string) error {
	c.Set("X-Certificate-Number", issued.CertificateNumber)
	return sendPDF(c, issued.Bytes, services.AttachmentFilename(subject))
}

func sendPDF(c *fiber.Ctx, body []byte, filename string) error {
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(body)
}
