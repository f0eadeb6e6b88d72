package store

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS production_paths (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    code        TEXT NOT NULL UNIQUE,
    name        TEXT NOT NULL DEFAULT '',
    version     INTEGER NOT NULL DEFAULT 1,
    operations  TEXT NOT NULL DEFAULT '[]',
    is_active   INTEGER NOT NULL DEFAULT 1,
    created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%d %H:%M:%f','now')),
    updated_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%d %H:%M:%f','now'))
);

CREATE TABLE IF NOT EXISTS rooms (
    id                 INTEGER PRIMARY KEY AUTOINCREMENT,
    name               TEXT NOT NULL,
    manager_user_id    TEXT NOT NULL DEFAULT '',
    supervisor_user_id TEXT NOT NULL DEFAULT '',
    is_active          INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS room_operators (
    room_id  INTEGER NOT NULL REFERENCES rooms(id),
    user_id  TEXT NOT NULL,
    PRIMARY KEY (room_id, user_id)
);

CREATE TABLE IF NOT EXISTS work_centers (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    room_id    INTEGER REFERENCES rooms(id),
    name       TEXT NOT NULL,
    type       TEXT NOT NULL DEFAULT '',
    is_active  INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_work_centers_room ON work_centers(room_id);

CREATE TABLE IF NOT EXISTS work_stations (
    id                            INTEGER PRIMARY KEY AUTOINCREMENT,
    work_center_id                INTEGER NOT NULL REFERENCES work_centers(id),
    name                          TEXT NOT NULL,
    code                          TEXT NOT NULL DEFAULT '',
    status                        TEXT NOT NULL DEFAULT 'available',
    restrict_to_assigned_products INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS work_center_path_mappings (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    work_center_id  INTEGER NOT NULL REFERENCES work_centers(id),
    path_code       TEXT NOT NULL,
    is_active       INTEGER NOT NULL DEFAULT 1,
    created_at      TEXT NOT NULL DEFAULT (strftime('%Y-%m-%d %H:%M:%f','now')),
    UNIQUE (work_center_id, path_code)
);

CREATE TABLE IF NOT EXISTS machine_product_assignments (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    work_station_id  INTEGER NOT NULL REFERENCES work_stations(id),
    product_id       TEXT NOT NULL,
    assigned_by      TEXT NOT NULL DEFAULT '',
    created_at       TEXT NOT NULL DEFAULT (strftime('%Y-%m-%d %H:%M:%f','now')),
    UNIQUE (work_station_id, product_id)
);

CREATE TABLE IF NOT EXISTS work_orders (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    source_order_id  TEXT NOT NULL,
    room_id          INTEGER REFERENCES rooms(id),
    status           TEXT NOT NULL DEFAULT 'planned',
    created_at       TEXT NOT NULL DEFAULT (strftime('%Y-%m-%d %H:%M:%f','now')),
    updated_at       TEXT NOT NULL DEFAULT (strftime('%Y-%m-%d %H:%M:%f','now'))
);
CREATE INDEX IF NOT EXISTS idx_work_orders_source ON work_orders(source_order_id);

CREATE TABLE IF NOT EXISTS production_orders (
    id                  INTEGER PRIMARY KEY AUTOINCREMENT,
    source_order_id     TEXT NOT NULL,
    source_item_id      TEXT NOT NULL DEFAULT '',
    product_id          TEXT NOT NULL DEFAULT '',
    product_code        TEXT NOT NULL DEFAULT '',
    work_order_id       INTEGER REFERENCES work_orders(id),
    path_expression     TEXT NOT NULL DEFAULT '',
    branch_code         TEXT,
    branch_path_codes   TEXT NOT NULL DEFAULT '[]',
    status              TEXT NOT NULL DEFAULT 'planned',
    quantity            INTEGER NOT NULL DEFAULT 1,
    completed_quantity  INTEGER NOT NULL DEFAULT 0,
    priority            INTEGER NOT NULL DEFAULT 3,
    estimated_minutes   INTEGER NOT NULL DEFAULT 0,
    delivery_date       TEXT,
    actual_start_date   TEXT,
    actual_end_date     TEXT,
    created_at          TEXT NOT NULL DEFAULT (strftime('%Y-%m-%d %H:%M:%f','now')),
    updated_at          TEXT NOT NULL DEFAULT (strftime('%Y-%m-%d %H:%M:%f','now'))
);
CREATE INDEX IF NOT EXISTS idx_production_orders_source ON production_orders(source_order_id);
CREATE INDEX IF NOT EXISTS idx_production_orders_work_order ON production_orders(work_order_id);
CREATE INDEX IF NOT EXISTS idx_production_orders_status ON production_orders(status);

CREATE TABLE IF NOT EXISTS production_operations (
    id                   INTEGER PRIMARY KEY AUTOINCREMENT,
    production_order_id  INTEGER NOT NULL REFERENCES production_orders(id),
    sequence             INTEGER NOT NULL DEFAULT 1,
    path_code            TEXT NOT NULL DEFAULT '',
    operation_type       TEXT NOT NULL DEFAULT '',
    status               TEXT NOT NULL DEFAULT 'pending',
    operator_id          TEXT NOT NULL DEFAULT '',
    work_station_id      INTEGER REFERENCES work_stations(id),
    start_time           TEXT,
    end_time             TEXT,
    actual_time          INTEGER NOT NULL DEFAULT 0,
    output_quantity      INTEGER NOT NULL DEFAULT 0,
    problem_note         TEXT NOT NULL DEFAULT '',
    revision             INTEGER NOT NULL DEFAULT 0,
    created_at           TEXT NOT NULL DEFAULT (strftime('%Y-%m-%d %H:%M:%f','now')),
    updated_at           TEXT NOT NULL DEFAULT (strftime('%Y-%m-%d %H:%M:%f','now'))
);
CREATE INDEX IF NOT EXISTS idx_production_operations_order ON production_operations(production_order_id);

CREATE TABLE IF NOT EXISTS production_logs (
    id                   INTEGER PRIMARY KEY AUTOINCREMENT,
    production_order_id  INTEGER NOT NULL,
    operation_id         INTEGER,
    action               TEXT NOT NULL,
    previous_status      TEXT NOT NULL DEFAULT '',
    new_status           TEXT NOT NULL DEFAULT '',
    user_id              TEXT NOT NULL DEFAULT '',
    notes                TEXT NOT NULL DEFAULT '',
    created_at           TEXT NOT NULL DEFAULT (strftime('%Y-%m-%d %H:%M:%f','now'))
);
CREATE INDEX IF NOT EXISTS idx_production_logs_order ON production_logs(production_order_id);

CREATE TABLE IF NOT EXISTS outbox (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    topic       TEXT NOT NULL,
    payload     BLOB NOT NULL,
    msg_type    TEXT NOT NULL DEFAULT '',
    retries     INTEGER NOT NULL DEFAULT 0,
    created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%d %H:%M:%f','now')),
    sent_at     TEXT
);
CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox(sent_at);
`
