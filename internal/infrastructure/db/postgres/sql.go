package postgres

const eventColumns = `
id, organizer_id, title, description, location, category, image_url,
start_time, end_time, capacity, available_seats, status,
published_at, started_at, completed_at, canceled_at, cancel_reason,
created_at, updated_at`

const insertEventSQL = `
INSERT INTO events (` + eventColumns + `
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
`

const getEventSQL = `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

const getEventForUpdateSQL = getEventSQL + ` FOR UPDATE`

const updateEventSQL = `
UPDATE events SET
  title=$2, description=$3, location=$4, category=$5, image_url=$6,
  start_time=$7, end_time=$8, capacity=$9, available_seats=$10, status=$11,
  published_at=$12, started_at=$13, completed_at=$14, canceled_at=$15,
  cancel_reason=$16, updated_at=$17
WHERE id=$1
`

const deleteEventSQL = `DELETE FROM events WHERE id = $1`

const inventoryColumns = `event_id, total_seats, remaining_seats, open, created_at, updated_at`

const getInventorySQL = `SELECT ` + inventoryColumns + ` FROM seat_inventory WHERE event_id = $1`

const getInventoryForUpdateSQL = getInventorySQL + ` FOR UPDATE`

const insertInventorySQL = `
INSERT INTO seat_inventory (` + inventoryColumns + `)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (event_id) DO NOTHING
`

const updateInventorySQL = `
UPDATE seat_inventory SET remaining_seats=$2, open=$3, updated_at=$4
WHERE event_id=$1
`

const ticketColumns = `
id, event_id, user_id, ticket_type, price_cents, currency, redemption_code,
status, canceled_at, created_at, updated_at`

const insertTicketSQL = `
INSERT INTO tickets (` + ticketColumns + `
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`

const getTicketSQL = `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`

const getTicketForUpdateSQL = getTicketSQL + ` FOR UPDATE`

const updateTicketSQL = `
UPDATE tickets SET status=$2, canceled_at=$3, updated_at=$4
WHERE id=$1
`

const userColumns = `id, first_name, last_name, email, password_hash, role, created_at, updated_at`

const insertUserSQL = `INSERT INTO users (` + userColumns + `) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

const getUserSQL = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

const updateUserSQL = `
UPDATE users SET first_name=$2, last_name=$3, email=$4, password_hash=$5, role=$6, updated_at=$7
WHERE id=$1
`

const insertOutboxSQL = `
INSERT INTO event_outbox (
  message_id, routing_key, body, created_at, status, next_retry_at
) VALUES ($1, $2, $3::jsonb, $4, 'pending', $4)
`
