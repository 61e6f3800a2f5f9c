package testutil

// Schema mirrors migrations/001_init.sql for integration tests.
const Schema = `
CREATE TABLE IF NOT EXISTS employees (
    id            BIGSERIAL PRIMARY KEY,
    first_name    TEXT NOT NULL,
    last_name     TEXT NOT NULL,
    email         TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'employee',
    password_hash TEXT NOT NULL,
    active        BOOLEAN NOT NULL DEFAULT TRUE,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CONSTRAINT employees_email_unique UNIQUE (email),
    CONSTRAINT employees_role_valid CHECK (role IN ('employee', 'hr'))
);

CREATE TABLE IF NOT EXISTS shift_records (
    id            UUID PRIMARY KEY,
    employee_id   BIGINT NOT NULL REFERENCES employees(id),
    work_date     DATE NOT NULL,
    clock_in      TIME NOT NULL,
    clock_out     TIME,
    break_minutes INT,
    total_hours   NUMERIC(5,2),
    status        TEXT NOT NULL DEFAULT 'pending',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CONSTRAINT shift_records_employee_date UNIQUE (employee_id, work_date),
    CONSTRAINT shift_records_break_minutes_non_negative CHECK (break_minutes IS NULL OR break_minutes >= 0),
    CONSTRAINT shift_records_total_hours_non_negative CHECK (total_hours IS NULL OR total_hours >= 0),
    CONSTRAINT shift_records_status_valid CHECK (status IN ('pending', 'approved')),
    CONSTRAINT shift_records_closed_fields CHECK (
        (clock_out IS NULL AND total_hours IS NULL AND break_minutes IS NULL)
        OR (clock_out IS NOT NULL AND total_hours IS NOT NULL AND break_minutes IS NOT NULL)
    )
);
`
