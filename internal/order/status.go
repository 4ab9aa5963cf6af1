package order

type Status string

const (
	StatusEmpty Status = "empty"
	StatusNew   Status = "new"
	// StatusMaking объявлен для совместимости с историей заказов,
	// текущие переходы его не используют.
	StatusMaking Status = "making_an_order"
	StatusDone   Status = "done"
)

func (s Status) String() string {
	return string(s)
}

// Terminal сообщает, что заказ завершён и больше не изменяется.
func (s Status) Terminal() bool {
	return s == StatusDone
}

// Mutable сообщает, допускает ли статус операции добавления/удаления позиций.
func (s Status) Mutable() bool {
	return s == StatusEmpty || s == StatusNew
}

// StatusForLineCount возвращает статус рабочего заказа по числу позиций:
// без позиций заказ пуст, с позициями — новый. Завершённые заказы сюда
// не попадают, finalization — единственный путь в done.
func StatusForLineCount(n int) Status {
	if n == 0 {
		return StatusEmpty
	}
	return StatusNew
}
