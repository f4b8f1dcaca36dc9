package analysis

import (
	"fmt"
	"strconv"
)

const basePrompt = "Analyze this image for nutritional information. Identify all food items, estimate portions, and calculate macros. If it is not food, set isFood to false. IMPORTANT: Provide the summary, food names, and portions in Georgian language."

// BuildPrompt returns the instruction text. A positive weight adds the
// exact-weight sentence.
func BuildPrompt(weight *float64) string {
	if weight == nil || *weight <= 0 {
		return basePrompt
	}
	grams := strconv.FormatFloat(*weight, 'f', -1, 64)
	return basePrompt + fmt.Sprintf(" IMPORTANT: The user has provided the exact weight of this food as %s grams. Use this exact weight for your calculations instead of estimating portion sizes. Calculate the nutritional values based on this precise weight.", grams)
}

type schema map[string]any

func macrosSchema(described bool) schema {
	prop := func(desc string) schema {
		if !described {
			return schema{"type": "NUMBER"}
		}
		return schema{"type": "NUMBER", "description": desc}
	}
	return schema{
		"type": "OBJECT",
		"properties": schema{
			"calories": prop("Estimated calories"),
			"protein":  prop("Protein in grams"),
			"carbs":    prop("Carbohydrates in grams"),
			"fat":      prop("Fat in grams"),
		},
		"required": []string{"calories", "protein", "carbs", "fat"},
	}
}

// responseSchema constrains the model output to Result.
var responseSchema = schema{
	"type": "OBJECT",
	"properties": schema{
		"isFood": schema{
			"type":        "BOOLEAN",
			"description": "Whether the image contains food or drink items.",
		},
		"confidenceScore": schema{
			"type":        "NUMBER",
			"description": "A score from 0 to 1 indicating confidence that this is food.",
		},
		"summary": schema{
			"type":        "STRING",
			"description": "A brief, friendly summary of the meal in Georgian language (e.g., 'ჯანსაღი სალათი ქათმით და ავოკადოთი').",
		},
		"foodItems": schema{
			"type": "ARRAY",
			"items": schema{
				"type": "OBJECT",
				"properties": schema{
					"name":    schema{"type": "STRING", "description": "Name of the food item in Georgian"},
					"portion": schema{"type": "STRING", "description": "Estimated portion size in Georgian (e.g., '1 ჭიქა', '150გ')"},
					"macros":  macrosSchema(true),
				},
				"required": []string{"name", "portion", "macros"},
			},
		},
		"totalMacros": macrosSchema(false),
	},
	"required": []string{"isFood", "foodItems", "totalMacros", "summary"},
}
