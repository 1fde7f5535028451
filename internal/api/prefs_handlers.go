package api

import (
	"log"

	"github.com/diutransit/reminder_core/internal/prefs"
	"github.com/gofiber/fiber/v2"
)

// prefsUpdateRequest is a partial update: only the fields present in the
// body are applied.
type prefsUpdateRequest struct {
	NotificationsEnabled *bool   `json:"notifications_enabled"`
	NotifyLeadMinutes    *int    `json:"notify_lead_minutes"`
	SelectedRoute        *string `json:"selected_route"`
	DarkMode             *bool   `json:"dark_mode"`
	ShowUpdateBanner     *bool   `json:"show_update_banner"`
	CompactMode          *bool   `json:"compact_mode"`
}

// GetPrefs handles GET /v2/prefs
func (h *Handlers) GetPrefs(c *fiber.Ctx) error {
	p, err := h.Prefs.Get(c.Context())
	if err != nil {
		log.Printf("Error: failed to read preferences: %v", err)
		return fiber.NewError(500, "failed to read preferences")
	}
	return c.JSON(p)
}

// UpdatePrefs handles PUT /v2/prefs
func (h *Handlers) UpdatePrefs(c *fiber.Ctx) error {
	var req prefsUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	ctx := c.Context()

	if req.NotifyLeadMinutes != nil {
		if *req.NotifyLeadMinutes < prefs.MinLeadMinutes || *req.NotifyLeadMinutes > prefs.MaxLeadMinutes {
			return c.Status(400).JSON(fiber.Map{
				"error": "notify_lead_minutes out of range",
				"min":   prefs.MinLeadMinutes,
				"max":   prefs.MaxLeadMinutes,
			})
		}
		if err := h.Prefs.SetNotifyLeadMinutes(ctx, *req.NotifyLeadMinutes); err != nil {
			return prefsWriteError(c, err)
		}
	}
	if req.NotificationsEnabled != nil {
		if err := h.Prefs.SetNotificationsEnabled(ctx, *req.NotificationsEnabled); err != nil {
			return prefsWriteError(c, err)
		}
	}
	if req.SelectedRoute != nil {
		if err := h.Prefs.SetSelectedRoute(ctx, *req.SelectedRoute); err != nil {
			return prefsWriteError(c, err)
		}
	}
	if req.DarkMode != nil {
		if err := h.Prefs.SetDarkMode(ctx, *req.DarkMode); err != nil {
			return prefsWriteError(c, err)
		}
	}
	if req.ShowUpdateBanner != nil {
		if err := h.Prefs.SetShowUpdateBanner(ctx, *req.ShowUpdateBanner); err != nil {
			return prefsWriteError(c, err)
		}
	}
	if req.CompactMode != nil {
		if err := h.Prefs.SetCompactMode(ctx, *req.CompactMode); err != nil {
			return prefsWriteError(c, err)
		}
	}

	p, err := h.Prefs.Get(ctx)
	if err != nil {
		log.Printf("Error: failed to read preferences after update: %v", err)
		return fiber.NewError(500, "failed to read preferences")
	}
	return c.JSON(p)
}

func prefsWriteError(c *fiber.Ctx, err error) error {
	log.Printf("Error: failed to update preferences: %v", err)
	return c.Status(500).JSON(fiber.Map{"error": "failed to update preferences"})
}
