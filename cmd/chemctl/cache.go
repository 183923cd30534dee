package main

import (
	"fmt"

	"chemsafe-go/internal/config"
	"chemsafe-go/internal/model"
	"chemsafe-go/internal/repository"
	"chemsafe-go/internal/service"
	"chemsafe-go/pkg/database"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	clearKinds []string
	clearAll   bool
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the generated document cache",
	}

	clear := &cobra.Command{
		Use:   "clear",
		Short: "Delete every cached document of the given kinds",
		Long: `Deletes cached documents from MySQL and the Redis tier.

Examples:
  chemctl cache clear --kind technical
  chemctl cache clear --kind safety --kind product
  chemctl cache clear --all`,
		RunE: runCacheClear,
	}
	clear.Flags().StringSliceVarP(&clearKinds, "kind", "k", nil, "Document kind to clear (safety, technical, product)")
	clear.Flags().BoolVar(&clearAll, "all", false, "Clear every cacheable kind")
	clear.MarkFlagsOneRequired("kind", "all")
	clear.MarkFlagsMutuallyExclusive("kind", "all")

	cmd.AddCommand(clear)
	return cmd
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	kinds := make([]model.DocumentKind, 0, len(model.CacheableKinds))
	if clearAll {
		kinds = append(kinds, model.CacheableKinds...)
	}
	for _, k := range clearKinds {
		kind, err := model.ParseDocumentKind(k)
		if err != nil {
			return err
		}
		kinds = append(kinds, kind)
	}

	cfg := config.Conf
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	repo := repository.NewRedisDocumentCache(database.RDB, repository.NewDocumentCacheRepository(database.DB), cfg.Cache.RedisTTL)
	admin := service.NewAdminService(repo)

	for _, kind := range kinds {
		n, err := admin.ClearCache(cmd.Context(), kind)
		if err != nil {
			fmt.Printf("%s %s: %v\n", color.RedString("✗"), kind, err)
			return err
		}
		fmt.Printf("%s %s: %s rows deleted\n", color.GreenString("✓"), kind, color.YellowString("%d", n))
	}
	return nil
}
