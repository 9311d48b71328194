package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/AdekunleBamz/TimeFi-Protocol/models"
)

// Форматы вывода.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func validFormat(f string) error {
	switch f {
	case formatText, formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("неизвестный формат вывода %q (text, json, yaml)", f)
	}
}

// printer выводит результат команды в выбранном формате. В формате text
// используется функция text, в остальных - сериализация v.
type printer struct {
	out    io.Writer
	format string
}

func (p *printer) print(v any, text func(w io.Writer) error) error {
	switch p.format {
	case formatJSON:
		enc := json.NewEncoder(p.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(p.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return text(p.out)
	}
}

// value выводит одиночное значение.
func (p *printer) value(v any) error {
	return p.print(v, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, v)
		return err
	})
}

// amount выводит сумму: текстом в STX, иначе в микро-единицах.
func (p *printer) amount(micro uint64) error {
	return p.print(micro, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, FormatSTX(micro))
		return err
	})
}

func (p *printer) vault(v *models.Vault) error {
	return p.print(v, func(w io.Writer) error {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "ID:\t%d\n", v.ID)
		fmt.Fprintf(tw, "Владелец:\t%s\n", v.Owner)
		fmt.Fprintf(tw, "Сумма:\t%s\n", FormatSTX(v.Amount))
		fmt.Fprintf(tw, "Статус:\t%s\n", v.Status)
		fmt.Fprintf(tw, "Создано на высоте:\t%d\n", v.CreatedAt)
		fmt.Fprintf(tw, "Разблокировка на высоте:\t%d\n", v.UnlockHeight)
		fmt.Fprintf(tw, "Бот:\t%s\n", orDash(v.Bot))
		fmt.Fprintf(tw, "Получатель:\t%s\n", orDash(v.Beneficiary))
		fmt.Fprintf(tw, "Ожидает передачи:\t%s\n", orDash(v.PendingOwner))
		return tw.Flush()
	})
}

func (p *printer) vaults(list []models.Vault) error {
	return p.print(list, func(w io.Writer) error {
		if len(list) == 0 {
			_, err := fmt.Fprintln(w, "Хранилищ нет.")
			return err
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tСУММА\tРАЗБЛОКИРОВКА\tСТАТУС\tБОТ")
		for _, v := range list {
			fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", v.ID, FormatSTX(v.Amount), v.UnlockHeight, v.Status, orDash(v.Bot))
		}
		return tw.Flush()
	})
}

func (p *printer) proposal(pr *models.Proposal) error {
	return p.print(pr, func(w io.Writer) error {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "ID:\t%d\n", pr.ID)
		fmt.Fprintf(tw, "Заголовок:\t%s\n", pr.Title)
		fmt.Fprintf(tw, "Тип:\t%s\n", pr.Type)
		fmt.Fprintf(tw, "Автор:\t%s (хранилище %d)\n", pr.Proposer, pr.VaultID)
		fmt.Fprintf(tw, "Голоса за:\t%d\n", pr.VotesFor)
		fmt.Fprintf(tw, "Голоса против:\t%d\n", pr.VotesAgainst)
		fmt.Fprintf(tw, "Окончание:\t%d\n", pr.EndHeight)
		fmt.Fprintf(tw, "Итог:\t%s\n", proposalOutcome(pr))
		if pr.Description != "" {
			fmt.Fprintf(tw, "Описание:\t%s\n", pr.Description)
		}
		return tw.Flush()
	})
}

func (p *printer) proposals(list *models.ProposalList) error {
	return p.print(list, func(w io.Writer) error {
		if len(list.Proposals) == 0 {
			_, err := fmt.Fprintln(w, "Предложений нет.")
			return err
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tЗАГОЛОВОК\tЗА\tПРОТИВ\tОКОНЧАНИЕ\tИТОГ")
		for i := range list.Proposals {
			pr := &list.Proposals[i]
			fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%s\n",
				pr.ID, pr.Title, pr.VotesFor, pr.VotesAgainst, pr.EndHeight, proposalOutcome(pr))
		}
		return tw.Flush()
	})
}

func (p *printer) protocol(info *models.ProtocolInfo) error {
	return p.print(info, func(w io.Writer) error {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "Высота:\t%d\n", info.Height)
		fmt.Fprintf(tw, "Хранилищ:\t%d\n", info.VaultCount)
		fmt.Fprintf(tw, "Предложений:\t%d\n", info.ProposalCount)
		fmt.Fprintf(tw, "TVL:\t%s\n", FormatSTX(info.TVL))
		fmt.Fprintf(tw, "Собрано комиссий:\t%s\n", FormatSTX(info.TotalFees))
		fmt.Fprintf(tw, "Фонд вознаграждений:\t%s\n", FormatSTX(info.RewardsPool))
		fmt.Fprintf(tw, "Казначейство:\t%s\n", info.Treasury)
		fmt.Fprintf(tw, "Администратор:\t%s\n", info.Admin)
		fmt.Fprintf(tw, "Приостановлен:\t%t\n", info.Paused)
		fmt.Fprintf(tw, "Мин. депозит:\t%s\n", FormatSTX(info.MinDeposit))
		fmt.Fprintf(tw, "Блокировка:\t%d..%d\n", info.MinLock, info.MaxLock)
		fmt.Fprintf(tw, "Комиссия:\t%d bps\n", info.FeeBPS)
		return tw.Flush()
	})
}

func (p *printer) events(list []models.Event) error {
	return p.print(list, func(w io.Writer) error {
		for i := range list {
			if err := writeEventLine(w, &list[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// event выводит одно событие потока. JSON выводится одной строкой.
func (p *printer) event(ev *models.Event) error {
	if p.format == formatJSON {
		return json.NewEncoder(p.out).Encode(ev)
	}
	if p.format == formatYAML {
		return p.print([]*models.Event{ev}, nil)
	}
	return writeEventLine(p.out, ev)
}

func (p *printer) archives(list []models.Archive) error {
	return p.print(list, func(w io.Writer) error {
		if len(list) == 0 {
			_, err := fmt.Fprintln(w, "Архивов нет.")
			return err
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "КЛЮЧ\tВЫСОТА\tСОБЫТИЙ\tРАЗМЕР\tСОЗДАН")
		for _, a := range list {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\n",
				a.ObjectKey, a.Height, a.Events, a.SizeBytes, a.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return tw.Flush()
	})
}

func writeEventLine(w io.Writer, ev *models.Event) error {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d [%d] %s %s", ev.Seq, ev.Tick, ev.Type, ev.Caller)
	if ev.VaultID != 0 {
		fmt.Fprintf(&b, " vault=%d", ev.VaultID)
	}
	if ev.ProposalID != 0 {
		fmt.Fprintf(&b, " proposal=%d", ev.ProposalID)
	}
	if ev.Amount != 0 {
		fmt.Fprintf(&b, " amount=%s", FormatSTX(ev.Amount))
	}
	if ev.Address != "" {
		fmt.Fprintf(&b, " address=%s", ev.Address)
	}
	_, err := fmt.Fprintln(w, b.String())
	return err
}

func proposalOutcome(p *models.Proposal) string {
	switch {
	case !p.Resolved:
		return "голосование"
	case p.Passed:
		return "принято"
	default:
		return "отклонено"
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
