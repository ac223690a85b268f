// Package main provides localization for the labelkit CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Configuration": "設定",
		"Text Fitting":  "テキストの調整",
		"Rasterization": "ラスタライズ",
		"Browser":       "ブラウザ設定",
		"Debug":         "デバッグ",
		"Logging":       "ログ",

		// Root command
		"Fit label text and rasterize label SVGs":                                       "ラベルのテキスト調整とSVGのラスタライズ",
		"labelkit serves text measurement and SVG rasterization to label printing UIs.": "labelkitはラベル印刷UIにテキスト計測とSVGラスタライズを提供します。",

		// Commands
		"Serve the message ports over stdio or HTTP":                          "標準入出力またはHTTPでメッセージポートを提供",
		"Fit a single text and print the result as JSON":                      "テキストを1つ調整し、結果をJSONで出力",
		"Fit a recipe title and ingredient list and print the result as JSON": "レシピのタイトルと材料を調整し、結果をJSONで出力",
		"Rasterize an SVG element to PNG":                                     "SVG要素をPNGにラスタライズ",
		"Show version information":                                            "バージョン情報を表示",
		"labelkit version %s":                                                 "labelkit バージョン %s",

		// Serve flags
		"Transport (stdio, http)":                "通信方式（stdio, http）",
		"HTTP listen address (overrides config)": "HTTPの待ち受けアドレス（設定を上書き）",

		// Configuration flags
		"YAML configuration file":                             "YAML設定ファイル",
		"Environment file loaded before LABELKIT_* overrides": "LABELKIT_* の上書き前に読み込む環境変数ファイル",
		"Host name sent to the UI in the startup flags":       "起動時にUIへ送るホスト名",

		// Text fitting flags
		"Text measurer (shaping, glyph)":                              "テキスト計測方式（shaping, glyph）",
		"Strip HTML markup from text before measuring":                "計測前にテキストからHTMLマークアップを除去",
		"Request id (default: random UUID)":                           "リクエストID（デフォルト: ランダムなUUID）",
		"CSS font family list":                                        "CSSフォントファミリーのリスト",
		"Available width in pixels":                                   "利用可能な幅（ピクセル）",
		"Text to fit":                                                 "調整するテキスト",
		"Largest font size in pixels":                                 "最大フォントサイズ（ピクセル）",
		"Smallest font size in pixels":                                "最小フォントサイズ（ピクセル）",
		"Recipe title":                                                "レシピのタイトル",
		"Ingredient list":                                             "材料リスト",
		"Largest title font size in pixels":                           "タイトルの最大フォントサイズ（ピクセル）",
		"Smallest title font size in pixels":                          "タイトルの最小フォントサイズ（ピクセル）",
		"Ingredient font size in pixels":                              "材料のフォントサイズ（ピクセル）",
		"Truncate ingredients to this many characters (0 = no limit)": "材料をこの文字数で切り詰める（0 = 制限なし）",

		// Rasterization flags
		"Element source (memory, directory, chrome)":          "要素の取得元（memory, directory, chrome）",
		"Directory of SVG files for the directory document":   "directory ドキュメントのSVGファイルのディレクトリ",
		"SVG decoder (svg, chrome)":                           "SVGデコーダー（svg, chrome）",
		"Id of the SVG element":                               "SVG要素のID",
		"Load the element from this SVG file first":           "先にこのSVGファイルから要素を読み込む",
		"Output width in pixels":                              "出力の幅（ピクセル）",
		"Output height in pixels":                             "出力の高さ（ピクセル）",
		"Rotate 90 degrees clockwise":                         "時計回りに90度回転",
		"Write the PNG to this path instead of printing JSON": "JSONを出力する代わりにPNGをこのパスに書き込む",

		// Browser flags
		"Path to Chrome executable":        "Chrome実行ファイルのパス",
		"Run browser in non-headless mode": "ブラウザを非ヘッドレスモードで実行",

		// Debug flags
		"Enable debug output":        "デバッグ出力を有効化",
		"Directory for debug output": "デバッグ出力のディレクトリ",

		// Logging flags
		"Log level (debug, info, warn, error)": "ログレベル（debug, info, warn, error）",
		"Suppress all log output":              "全てのログ出力を抑制",

		// Error messages
		"--file requires a memory or chrome document": "--file には memory または chrome ドキュメントが必要です",
	})
}
