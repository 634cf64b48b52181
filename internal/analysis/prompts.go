package analysis

import (
	"encoding/json"
	"fmt"
)

func analysisPrompt(ticker string) string {
	return fmt.Sprintf(`Hãy phân tích mã cổ phiếu %s trên thị trường chứng khoán Việt Nam.
Sử dụng dữ liệu từ Yahoo Finance và các nguồn tin tức tài chính uy tín (CafeF, Vietstock).
Cập nhật thông tin mới nhất về kết quả kinh doanh quý gần nhất, tin tức sự kiện quan trọng, nhận định kỹ thuật và các rủi ro hiện hữu.

Đồng thời, hãy tìm ít nhất 5 tin tức mới nhất liên quan đến mã %s.

YÊU CẦU ĐẶC BIỆT: Đưa ra một dự báo giá mục tiêu trong vòng 3-6 tháng tới.

Trả về kết quả theo định dạng JSON chuyên nghiệp.`, ticker, ticker)
}

const marketOverviewPrompt = `Lấy giá trị hiện tại, điểm thay đổi và % thay đổi của các chỉ số chứng khoán Việt Nam sau: VN-INDEX, HNX-INDEX, UPCOM-INDEX, VN30.
Hãy tìm thông tin thực tế mới nhất từ Yahoo Finance hoặc CafeF.
Trả về định dạng JSON array: [{"name": string, "value": number, "change": number, "changePercent": number}]`

func newsPrompt(ticker, query string) string {
	return fmt.Sprintf(`Tìm tin tức về mã %s liên quan đến: "%s". Trả về JSON array.`, ticker, query)
}

// withSchema appends the expected JSON shape to a prompt.
func withSchema(prompt string, schema map[string]any) string {
	b, err := json.Marshal(schema)
	if err != nil {
		return prompt
	}
	return prompt + "\n\nChỉ trả về JSON hợp lệ, không kèm giải thích, theo JSON schema sau:\n" + string(b)
}

var newsItemSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"title":  map[string]any{"type": "STRING"},
		"source": map[string]any{"type": "STRING"},
		"url":    map[string]any{"type": "STRING"},
		"time":   map[string]any{"type": "STRING"},
		"category": map[string]any{
			"type": "STRING",
			"enum": []string{"Kết quả kinh doanh", "Cổ tức", "Vĩ mô", "Giao dịch", "Tin chung"},
		},
	},
	"required": []string{"title", "source", "url", "time", "category"},
}

var analysisSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"summary":             map[string]any{"type": "STRING"},
		"technicalAnalysis":   map[string]any{"type": "STRING"},
		"fundamentalAnalysis": map[string]any{"type": "STRING"},
		"risks":               map[string]any{"type": "STRING"},
		"recommendation": map[string]any{
			"type": "STRING",
			"enum": []string{"BUY", "SELL", "HOLD", "NEUTRAL"},
		},
		"financialRatios": map[string]any{
			"type": "OBJECT",
			"properties": map[string]any{
				"pe":            map[string]any{"type": "NUMBER"},
				"eps":           map[string]any{"type": "NUMBER"},
				"roe":           map[string]any{"type": "STRING"},
				"pb":            map[string]any{"type": "NUMBER"},
				"dividendYield": map[string]any{"type": "STRING"},
				"marketCap":     map[string]any{"type": "STRING"},
			},
		},
		"priceForecast": map[string]any{
			"type": "OBJECT",
			"properties": map[string]any{
				"targetPrice":  map[string]any{"type": "NUMBER"},
				"currentPrice": map[string]any{"type": "NUMBER"},
				"timeframe":    map[string]any{"type": "STRING"},
				"confidence": map[string]any{
					"type": "STRING",
					"enum": []string{"LOW", "MEDIUM", "HIGH"},
				},
				"reasoning": map[string]any{"type": "STRING"},
			},
			"required": []string{"targetPrice", "currentPrice", "timeframe", "confidence", "reasoning"},
		},
		"news": map[string]any{
			"type":  "ARRAY",
			"items": newsItemSchema,
		},
	},
	"required": []string{"summary", "technicalAnalysis", "fundamentalAnalysis", "risks", "recommendation", "financialRatios", "priceForecast", "news"},
}

var marketOverviewSchema = map[string]any{
	"type": "ARRAY",
	"items": map[string]any{
		"type": "OBJECT",
		"properties": map[string]any{
			"name":          map[string]any{"type": "STRING"},
			"value":         map[string]any{"type": "NUMBER"},
			"change":        map[string]any{"type": "NUMBER"},
			"changePercent": map[string]any{"type": "NUMBER"},
		},
		"required": []string{"name", "value", "change", "changePercent"},
	},
}

var newsSchema = map[string]any{
	"type":  "ARRAY",
	"items": newsItemSchema,
}
