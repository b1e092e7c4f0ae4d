package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/Benjamin-taro/heaters/internal/domain"
	"github.com/Benjamin-taro/heaters/internal/storage"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert demo listings into the configured storage",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()
		return fillWithMockData(cmd.Context(), store)
	},
}

var mockPosts = []map[string]any{
	{
		"title":       "Room in Glasgow",
		"category":    "賃貸・ルームシェア",
		"city":        "Glasgow",
		"price":       "450",
		"price_unit":  "month",
		"description": "Double room in a shared flat near the West End.",
		"tags":        []string{"flatshare", "bills-included"},
	},
	{
		"title":       "Japanese language exchange night",
		"category":    "イベント",
		"city":        "Edinburgh",
		"description": "Monthly meetup, all levels welcome.",
		"expires_at":  "2026-12-31",
	},
	{
		"title":     "Rice cooker for sale",
		"category":  "売ります・買います",
		"city":      "London",
		"price":     25,
		"images":    "https://example.com/rice-cooker.jpg",
		"published": true,
	},
}

func fillWithMockData(ctx context.Context, s storage.Storage) error {
	for _, fields := range mockPosts {
		fields["admin_code"] = uuid.NewString()

		payload := make(domain.Payload, len(fields))
		for key, value := range fields {
			raw, err := json.Marshal(value)
			if err != nil {
				return fmt.Errorf("failed to encode %s: %w", key, err)
			}
			payload[key] = raw
		}

		post, err := s.CreatePost(ctx, payload)
		if err != nil {
			return fmt.Errorf("failed to create post %q: %w", fields["title"], err)
		}
		log.Printf("Created post ID: %d (%s)", post.ID, post.Title)
	}
	return nil
}
