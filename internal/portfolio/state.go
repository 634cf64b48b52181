package portfolio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"StockLens/internal/model"
)

// LoadState reads the watchlist from a JSON file. Returns an empty state if the file doesn't exist.
func LoadState(filePath string) (*model.PortfolioState, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.PortfolioState{Stocks: []model.PortfolioStock{}}, nil
		}
		return nil, fmt.Errorf("read watchlist: %w", err)
	}
	var state model.PortfolioState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode watchlist %s: %w", filePath, err)
	}
	if state.Stocks == nil {
		state.Stocks = []model.PortfolioStock{}
	}
	return &state, nil
}

// SaveState writes the watchlist to a JSON file, replacing it atomically.
func SaveState(filePath string, state *model.PortfolioState) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create watchlist dir: %w", err)
		}
	}
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, filePath)
}
