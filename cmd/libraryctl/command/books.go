package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var booksCmd = &cobra.Command{
	Use:   "books [query]",
	Short: "Search the catalog",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := ""
		if len(args) == 1 {
			query = args[0]
		}
		inStock, _ := cmd.Flags().GetBool("in-stock")
		page, _ := cmd.Flags().GetInt("page")
		limit, _ := cmd.Flags().GetInt("limit")

		ctx, cancel := commandContext(cmd)
		defer cancel()

		// the catalog is public, a session is optional
		c, _, err := authedClient()
		if err != nil {
			c = newPublicClient()
		}
		result, err := c.SearchBooks(ctx, query, inStock, page, limit)
		if err != nil {
			return err
		}
		if len(result.Data) == 0 {
			fmt.Println("No books found.")
			return nil
		}

		fmt.Printf("%d books (page %d/%d):\n\n", result.Pagination.Total, result.Pagination.Page, result.Pagination.TotalPages)
		for _, b := range result.Data {
			fmt.Printf("%-6d %-40s %-24s %d/%d available\n", b.ID, truncate(b.Title, 40), truncate(b.Author, 24), b.Available, b.Total)
		}
		return nil
	},
}

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Show and edit the cart",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := authedClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		items, err := c.Cart(ctx)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Println("Cart is empty.")
			return nil
		}
		for _, it := range items {
			fmt.Printf("book %-6d x%-3d %s (%d available)\n", it.BookID, it.Quantity, it.Title, it.Available)
		}
		return nil
	},
}

var cartAddCmd = &cobra.Command{
	Use:   "add [book_id] [quantity]",
	Short: "Add copies of a book to the cart",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		bookID, qty, err := parseBookQty(args, 1)
		if err != nil {
			return err
		}
		c, _, err := authedClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		item, err := c.AddToCart(ctx, bookID, qty)
		if err != nil {
			return err
		}
		success("%s now x%d in cart", item.Title, item.Quantity)
		return nil
	},
}

var cartSetCmd = &cobra.Command{
	Use:   "set [book_id] [quantity]",
	Short: "Set the quantity of a cart line (0 removes it)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		bookID, qty, err := parseBookQty(args, 0)
		if err != nil {
			return err
		}
		c, _, err := authedClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		if err := c.SetCartItem(ctx, bookID, qty); err != nil {
			return err
		}
		success("Cart updated")
		return nil
	},
}

var cartRemoveCmd = &cobra.Command{
	Use:   "rm [book_id]",
	Short: "Remove a book from the cart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bookID, err := parseID(args[0])
		if err != nil {
			return err
		}
		c, _, err := authedClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		if err := c.RemoveFromCart(ctx, bookID); err != nil {
			return err
		}
		success("Removed book %d", bookID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(booksCmd, cartCmd)
	cartCmd.AddCommand(cartAddCmd, cartSetCmd, cartRemoveCmd)

	booksCmd.Flags().Bool("in-stock", false, "only books with available copies")
	booksCmd.Flags().Int("page", 1, "page number")
	booksCmd.Flags().Int("limit", 20, "page size")
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// parseBookQty reads [book_id] [quantity]; quantity defaults to 1 and must be >= minQty.
func parseBookQty(args []string, minQty int) (int64, int, error) {
	bookID, err := parseID(args[0])
	if err != nil {
		return 0, 0, err
	}
	qty := 1
	if len(args) > 1 {
		qty, err = strconv.Atoi(args[1])
		if err != nil || qty < minQty {
			return 0, 0, fmt.Errorf("invalid quantity %q", args[1])
		}
	}
	return bookID, qty, nil
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}
