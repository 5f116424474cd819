package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/tradehub/internal/common"
	"github.com/dmitrijs2005/tradehub/internal/models"
	"github.com/dmitrijs2005/tradehub/internal/netx"
)

// loadImage is a test seam for netx.LoadImage.
var loadImage = netx.LoadImage

// Profile reloads and prints the profile of the signed-in user. When the
// server cannot be reached the cached profile is shown with the error.
func (a *App) Profile(ctx context.Context) error {
	s, res := a.user.Load(ctx, a.identity.UserID)
	if s.Value != nil {
		printUser(a.out, s.Value)
	}
	return resultError("load profile", res)
}

// EditProfile prompts for each field; an empty answer keeps the current value.
func (a *App) EditProfile(ctx context.Context) error {
	var patch models.UserPatch

	name, err := getSimpleText(a.reader, "Full name (empty to keep)", a.out)
	if err != nil {
		return err
	}
	if name != "" {
		patch.FullName = models.String(name)
	}

	city, err := getSimpleText(a.reader, "City (empty to keep)", a.out)
	if err != nil {
		return err
	}
	if city != "" {
		patch.City = models.String(city)
	}

	picture, err := getSimpleText(a.reader, "Profile picture file or URL (empty to keep)", a.out)
	if err != nil {
		return err
	}
	if picture != "" {
		url, err := a.upload(ctx, picture)
		if err != nil {
			return err
		}
		patch.ProfilePicture = models.String(url)
	}

	if patch.IsEmpty() {
		fmt.Fprintln(a.out, "Nothing to change")
		return nil
	}

	s, res := a.user.Save(ctx, a.identity.UserID, patch)
	if err := resultError("save profile", res); err != nil {
		return err
	}
	printUser(a.out, s.Value)
	return nil
}

// upload stores the image at src and returns its URL.
func (a *App) upload(ctx context.Context, src string) (string, error) {
	img, err := loadImage(ctx, src, common.MaxImageSize)
	if err != nil {
		return "", fmt.Errorf("load image: %w", err)
	}
	url, res := a.catalog.UploadImage(ctx, a.identity, img.Name, img.ContentType, img.Data)
	if err := resultError("upload image", res); err != nil {
		return "", err
	}
	return url, nil
}
