package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Session level messages (orchestrator)
		"Session started":                          "セッションを開始しました",
		"Host disconnected, finishing %d requests": "ホストが切断されました。残り %d 件のリクエストを処理します",
		"Dropped malformed message: %s":            "不正なメッセージを破棄しました: %s",
		"Dropped message on unknown port %s":       "未知のポート %s のメッセージを破棄しました",
		"Dropped %s message without requestId: %s": "requestId のない %s メッセージを破棄しました: %s",
		"Request %s on %s failed: %s":              "リクエスト %s (%s) が失敗しました: %s",
		"Failed to send %s: %s":                    "%s の送信に失敗しました: %s",
		"Interrupted, shutting down...":            "中断されました。シャットダウン中...",

		// Text-fit stage
		"Fitted text at %dpx into %d lines":                             "テキストを %dpx、%d 行に収めました",
		"Fitted title at %dpx into %d lines, ingredients into %d lines": "タイトルを %dpx、%d 行に、材料を %d 行に収めました",

		// Raster stage
		"Request %s: %s":                  "リクエスト %s: %s",
		"Rasterized %s at %dx%d":          "%s を %dx%d でラスタライズしました",
		"Failed to rasterize %s: %s":      "%s のラスタライズに失敗しました: %s",
		"Raster request %s panicked: %s":  "ラスタライズ要求 %s でパニックが発生しました: %s",
		"Failed to save debug output: %s": "デバッグ出力の保存に失敗しました: %s",

		// Browser component
		"Chrome not found, installing Chromium":     "Chromeが見つかりません。Chromiumをインストールします",
		"Launching browser in headless mode":        "ヘッドレスモードでブラウザを起動中",
		"Launching browser in visible mode":         "表示モードでブラウザを起動中",
		"Navigating to %s":                          "%s へ移動中",
		"Browser closed":                            "ブラウザを閉じました",
		"Failed to insert element %s: %s":           "要素 %s の挿入に失敗しました: %s",
		"Markup for element %s has no root element": "要素 %s のマークアップにルート要素がありません",
		"Failed to remove element %s: %s":           "要素 %s の削除に失敗しました: %s",

		// Transports
		"Serving ports on stdio":       "標準入出力でポートを提供中",
		"Listening on %s":              "%s で待ち受け中",
		"Websocket session from %s":    "%s からのWebSocketセッション",
		"Websocket upgrade failed: %s": "WebSocketへのアップグレードに失敗しました: %s",
		"Websocket session ended: %s":  "WebSocketセッションが終了しました: %s",

		// CLI
		"Output saved to %s": "出力を %s に保存しました",
	})
}
