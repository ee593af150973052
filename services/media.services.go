package services

import (
	"chatline_server/errors"
	"chatline_server/global"
	"chatline_server/helpers"

	"github.com/gofiber/fiber/v2"
	minio "github.com/minio/minio-go/v7"
)

// UploadMedia stores an uploaded asset and returns its media id
func (e Env) UploadMedia(c *fiber.Ctx) error {

	form, err := c.MultipartForm()
	if err != nil {
		return errors.HandleBadRequestError(c, "Multipart", "invalid")
	}

	files := form.File["file"]
	if len(files) != 1 {
		return errors.HandleBadRequestError(c, "File", "missing")
	}

	if files[0].Size > 10000000 {
		return errors.HandleBadRequestError(c, "File", "exceeding length")
	}

	file, err := files[0].Open()
	if err != nil {
		return errors.HandleBadRequestError(c, "File", "invalid")
	}
	defer file.Close()

	mediaID := helpers.NewTimeID()

	_, err = global.MinIOClient.PutObject(global.Context, "media", mediaID, file, files[0].Size, minio.PutObjectOptions{
		ContentType: files[0].Header.Get("Content-Type"),
	})
	if err != nil {
		return errors.HandleInternalError(c, "minio_put", err.Error())
	}

	return c.JSON(struct {
		MediaID string
	}{
		MediaID: mediaID,
	})
}

// GetMedia streams a stored asset
func (e Env) GetMedia(c *fiber.Ctx) error {

	object, err := global.MinIOClient.GetObject(global.Context, "media", c.Params("mediaID"), minio.GetObjectOptions{})
	if err != nil {
		return errors.HandleInvalidRequestError(c, "Media", "unavailable")
	}

	return c.SendStream(object)
}
