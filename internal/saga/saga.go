// Package saga は複数リソースにまたがる作成処理の補償パターンを提供する。
//
// データベース行とディスク上のファイルのように、単一トランザクションで
// 囲めない2つの書き込みを順番に実行し、後段の失敗時には先に完了した
// ステップの取り消しをベストエフォートで行う。厳密な原子性の代わりに、
// 補償の削除自体が失敗した場合の狭い不整合ウィンドウを受け入れる。
package saga

import (
	"context"
	"log/slog"
)

// Step は補償付きの1ステップを表す。
type Step struct {
	// Name はログ出力で使用するステップ名。
	Name string
	// Do はステップ本体。失敗した場合、以降のステップは実行されない。
	Do func(ctx context.Context) error
	// Undo は完了済みステップの取り消し。
	// エラーはログに記録されるだけで呼び出し元には伝播しない。
	// nilの場合は取り消し不要とみなす。
	Undo func(ctx context.Context) error
}

// Run はステップを順に実行する。
// ステップNが失敗した場合、ステップN-1..1のUndoを逆順に実行し、
// ステップNのエラーをそのまま返す。Undoの失敗は握りつぶしてログに残す。
func Run(ctx context.Context, logger *slog.Logger, steps []Step) error {
	for i, step := range steps {
		if err := step.Do(ctx); err != nil {
			compensate(ctx, logger, steps[:i])
			return err
		}
	}
	return nil
}

// compensate は完了済みステップを逆順に取り消す。
func compensate(ctx context.Context, logger *slog.Logger, done []Step) {
	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		if step.Undo == nil {
			continue
		}
		if err := step.Undo(ctx); err != nil {
			logger.Error("saga compensation failed",
				slog.String("step", step.Name),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("saga step compensated",
				slog.String("step", step.Name),
			)
		}
	}
}
