package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show knowledge base status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		c, err := openContainer(ctx, false)
		if err != nil {
			return err
		}
		defer c.Close()

		info := c.Service.CollectionInfo(ctx)
		fmt.Printf("Collection:      %s\n", info.Name)
		fmt.Printf("Status:          %s\n", info.Status)
		fmt.Printf("Chunks:          %d\n", info.DocumentCount)
		fmt.Printf("Embedding model: %s\n", info.EmbeddingModel)
		fmt.Printf("Store:           %s\n", cfg.Store.Backend)
		if cfg.Store.Backend == "bolt" {
			fmt.Printf("Index path:      %s\n", cfg.Store.Path)
		}
		fmt.Printf("Data folder:     %s\n", cfg.Index.DataFolder)
		fmt.Printf("Chat model:      %s\n", cfg.LLM.Model)
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every chunk from the knowledge base",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		c, err := openContainer(ctx, false)
		if err != nil {
			return err
		}
		defer c.Close()

		if err := c.Service.ClearIndex(ctx); err != nil {
			return err
		}
		fmt.Println("Knowledge base cleared.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(clearCmd)
}
