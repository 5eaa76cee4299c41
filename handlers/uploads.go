package handlers

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"tips-publish-system/services"
	"tips-publish-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const maxLogoSize = 2 * 1024 * 1024 // 2MB

// logoTypes maps accepted extensions to the content type the file must sniff as.
var logoTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// UploadHeaders locks down responses for user-uploaded files: nothing in them
// may run script or load resources, and browsers must not re-sniff the type.
func UploadHeaders(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentSecurityPolicy, "default-src 'none'; sandbox")
	c.Set(fiber.HeaderXContentTypeOptions, "nosniff")
	return c.Next()
}

// logoFile is an accepted logo upload that has not been stored yet.
type logoFile struct {
	header      *multipart.FileHeader
	key         string
	contentType string
}

// URL is where the logo will be served once stored.
func (l *logoFile) URL() string {
	if utils.R2Enabled() {
		return utils.R2PublicURL(l.key)
	}
	return "/" + filepath.ToSlash(utils.GetUploadPath(l.key))
}

// checkLogo inspects the multipart file in field without storing it. It returns
// nil and no problem when the field carries no file.
func checkLogo(c *fiber.Ctx, field, label string) (*logoFile, string) {
	fileHeader, err := c.FormFile(field)
	if err != nil || fileHeader == nil || fileHeader.Size == 0 {
		return nil, ""
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	contentType, ok := logoTypes[ext]
	if !ok {
		return nil, label + " must be an image file (png, jpg, gif, webp)"
	}
	if fileHeader.Size > maxLogoSize {
		return nil, label + " file too large (max 2MB)"
	}
	if sniffed, err := sniffContentType(fileHeader); err != nil || sniffed != contentType {
		return nil, label + " content does not match its file type"
	}

	return &logoFile{
		header:      fileHeader,
		key:         "logos/" + uuid.NewString() + ext,
		contentType: contentType,
	}, ""
}

func sniffContentType(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return "", err
	}
	return http.DetectContentType(head[:n]), nil
}

// storeLogos writes every logo to R2 when configured, otherwise to
// uploads/logos. On failure the logos already written are removed.
func storeLogos(ctx context.Context, logos []*logoFile) error {
	for i, l := range logos {
		var err error
		if utils.R2Enabled() {
			_, err = utils.UploadFileToR2(ctx, l.header, l.key, l.contentType)
		} else {
			err = utils.SaveFile(l.header, utils.GetUploadPath(l.key))
		}
		if err != nil {
			removeLogos(ctx, logos[:i])
			return fmt.Errorf("store logo %s: %w", l.key, err)
		}
		log.Info().Str("key", l.key).Bool("r2", utils.R2Enabled()).Msg("🖼️ Logo stored")
	}
	return nil
}

// removeLogos deletes stored logos whose match was not saved.
func removeLogos(ctx context.Context, logos []*logoFile) {
	for _, l := range logos {
		var err error
		if utils.R2Enabled() {
			err = utils.DeleteObjectFromR2(ctx, l.key)
		} else {
			err = utils.RemoveFile(utils.GetUploadPath(l.key))
		}
		if err != nil {
			log.Warn().Err(err).Str("key", l.key).Msg("failed to remove orphaned logo")
		}
	}
}

// applyLogos points the input's logo fields at the uploaded files.
func applyLogos(in *services.MatchInput, home, away *logoFile) {
	if home != nil {
		in.HomeLogo = services.Raw(home.URL())
	}
	if away != nil {
		in.AwayLogo = services.Raw(away.URL())
	}
}
